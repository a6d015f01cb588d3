package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cowatch/internal/model"
)

func progress(entries ...model.SeasonProgress) []model.SeasonProgress { return entries }

func sp(n int, st model.WatchStatus) model.SeasonProgress {
	return model.SeasonProgress{SeasonNumber: n, Status: st}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		known    []int
		progress []model.SeasonProgress
		want     model.WatchStatus
	}{
		{"no progress", []int{1, 2}, nil, model.StatusToWatch},
		{"one watched one default", []int{1, 2}, progress(sp(1, model.StatusWatched)), model.StatusToWatch},
		{"all watched", []int{1, 2}, progress(sp(1, model.StatusWatched), sp(2, model.StatusWatched)), model.StatusWatched},
		{"any watching", []int{1, 2, 3}, progress(sp(1, model.StatusWatched), sp(3, model.StatusWatching)), model.StatusWatching},
		{"all dropped", []int{1, 2}, progress(sp(1, model.StatusDropped), sp(2, model.StatusDropped)), model.StatusDropped},
		// 混合组合统一回落为 to_watch
		{"dropped and default", []int{1, 2}, progress(sp(1, model.StatusDropped)), model.StatusToWatch},
		{"watched and dropped", []int{1, 2}, progress(sp(1, model.StatusWatched), sp(2, model.StatusDropped)), model.StatusToWatch},
		{"unknown seasons uses progress", nil, progress(sp(1, model.StatusWatched), sp(2, model.StatusWatched)), model.StatusWatched},
		{"nothing known", nil, nil, model.StatusToWatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatus(tt.known, tt.progress))
		})
	}
}

func TestApplySeasonStatusSingleWatching(t *testing.T) {
	rating := 7
	in := progress(model.SeasonProgress{SeasonNumber: 1, Status: model.StatusWatching, Rating: &rating})

	out := ApplySeasonStatus(in, 2, model.StatusWatching, 1000)
	require.Len(t, out, 2)
	assert.Equal(t, model.StatusToWatch, out[0].Status)
	assert.Equal(t, 7, *out[0].Rating)
	assert.Equal(t, model.StatusWatching, out[1].Status)
	require.NotNil(t, out[1].StartedAt)
	assert.Equal(t, int64(1000), *out[1].StartedAt)

	// 入参不被修改
	assert.Equal(t, model.StatusWatching, in[0].Status)
}

func TestApplySeasonStatusToWatchRemovesEntry(t *testing.T) {
	rating := 8
	in := progress(
		model.SeasonProgress{SeasonNumber: 1, Status: model.StatusWatched, Rating: &rating},
		sp(2, model.StatusWatching),
	)
	out := ApplySeasonStatus(in, 1, model.StatusToWatch, 0)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].SeasonNumber)

	assert.Nil(t, ApplySeasonStatus(out, 2, model.StatusToWatch, 0))
}

func TestApplySeasonStatusPreservesMetadata(t *testing.T) {
	notes := "great"
	started := int64(500)
	in := progress(model.SeasonProgress{SeasonNumber: 3, Status: model.StatusWatching, Notes: &notes, StartedAt: &started})

	out := ApplySeasonStatus(in, 3, model.StatusWatched, 2000)
	require.Len(t, out, 1)
	assert.Equal(t, model.StatusWatched, out[0].Status)
	assert.Equal(t, "great", *out[0].Notes)
	assert.Equal(t, int64(500), *out[0].StartedAt)
	assert.Equal(t, int64(2000), *out[0].FinishedAt)
}

func TestApplySeasonStatusSkipsConflictingStamp(t *testing.T) {
	finished := int64(1000)
	out := ApplySeasonStatus(progress(model.SeasonProgress{SeasonNumber: 1, FinishedAt: &finished}), 1, model.StatusWatching, 5000)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].StartedAt)

	started := int64(9000)
	out = ApplySeasonStatus(progress(model.SeasonProgress{SeasonNumber: 1, StartedAt: &started}), 1, model.StatusWatched, 5000)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].FinishedAt)
	assert.Equal(t, int64(9000), *out[0].StartedAt)
}

// 随机序列下的不变量：至多一季 watching；整体 watched 当且仅当每季都 watched；开始不晚于完成
func TestSeasonStateMachineInvariants(t *testing.T) {
	statuses := []model.WatchStatus{model.StatusToWatch, model.StatusWatching, model.StatusWatched, model.StatusDropped}
	known := []int{1, 2, 3, 4}
	rng := rand.New(rand.NewSource(42))

	var state []model.SeasonProgress
	for i := 0; i < 2000; i++ {
		season := known[rng.Intn(len(known))]
		st := statuses[rng.Intn(len(statuses))]
		state = ApplySeasonStatus(state, season, st, int64(i))
		agg := AggregateStatus(known, state)

		watching, watched := 0, 0
		for _, p := range state {
			switch p.Status {
			case model.StatusWatching:
				watching++
			case model.StatusWatched:
				watched++
			}
			if p.StartedAt != nil && p.FinishedAt != nil {
				require.LessOrEqual(t, *p.StartedAt, *p.FinishedAt, "step %d", i)
			}
		}
		require.LessOrEqual(t, watching, 1, "step %d", i)
		assert.Equal(t, watched == len(known), agg == model.StatusWatched, "step %d", i)
		assert.Equal(t, watching == 1, agg == model.StatusWatching, "step %d", i)
		if st == model.StatusToWatch {
			assert.Nil(t, findSeason(state, season), "step %d", i)
		}
	}
}

func findSeason(progress []model.SeasonProgress, n int) *model.SeasonProgress {
	for i := range progress {
		if progress[i].SeasonNumber == n {
			return &progress[i]
		}
	}
	return nil
}
