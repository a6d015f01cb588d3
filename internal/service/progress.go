package service

import (
	"sort"

	"github.com/user/cowatch/internal/model"
)

// ApplySeasonStatus 返回设置某季状态后的季进度（不修改入参）
//
//   - to_watch：删除该季条目，评分/备注/日期一并丢弃
//   - watching：其他正在观看的季降级为 to_watch，元数据保留
//   - 其他状态：插入或更新该季条目，保留已有元数据
//
// nowMs 用于首次进入 watching / watched 时补全开始、完成日期。
func ApplySeasonStatus(progress []model.SeasonProgress, season int, status model.WatchStatus, nowMs int64) []model.SeasonProgress {
	out := make([]model.SeasonProgress, 0, len(progress)+1)
	for _, p := range progress {
		if p.SeasonNumber == season {
			continue
		}
		if status == model.StatusWatching && p.Status == model.StatusWatching {
			p.Status = model.StatusToWatch
		}
		out = append(out, p)
	}

	if status != model.StatusToWatch {
		entry := model.SeasonProgress{SeasonNumber: season}
		for _, p := range progress {
			if p.SeasonNumber == season {
				entry = p
				break
			}
		}
		entry.Status = status
		stampDates(status, &entry.StartedAt, &entry.FinishedAt, nowMs)
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SeasonNumber < out[j].SeasonNumber })
	if len(out) == 0 {
		return nil
	}
	return out
}

// AggregateStatus 由季进度推导剧集整体状态
//
// known 为媒体记录中的季号；为空时退化为已有进度条目的季号。
// 任一季 watching → watching；全部 watched → watched；全部 dropped → dropped；
// 其余组合（包括混合状态）一律为 to_watch。
func AggregateStatus(known []int, progress []model.SeasonProgress) model.WatchStatus {
	byNumber := make(map[int]model.WatchStatus, len(progress))
	for _, p := range progress {
		byNumber[p.SeasonNumber] = p.Status
	}

	seasons := known
	if len(seasons) == 0 {
		for _, p := range progress {
			seasons = append(seasons, p.SeasonNumber)
		}
	}
	if len(seasons) == 0 {
		return model.StatusToWatch
	}

	allWatched, allDropped := true, true
	for _, n := range seasons {
		st, ok := byNumber[n]
		if !ok {
			st = model.StatusToWatch
		}
		if st == model.StatusWatching {
			return model.StatusWatching
		}
		allWatched = allWatched && st == model.StatusWatched
		allDropped = allDropped && st == model.StatusDropped
	}

	switch {
	case allWatched:
		return model.StatusWatched
	case allDropped:
		return model.StatusDropped
	default:
		return model.StatusToWatch
	}
}

// stampDates 进入 watching 补开始日期，进入 watched 补完成日期
// 补全值与已有日期矛盾（开始晚于完成）时不补
func stampDates(status model.WatchStatus, started, finished **int64, nowMs int64) {
	switch status {
	case model.StatusWatching:
		if *started == nil && (*finished == nil || nowMs <= **finished) {
			v := nowMs
			*started = &v
		}
	case model.StatusWatched:
		if *finished == nil && (*started == nil || nowMs >= **started) {
			v := nowMs
			*finished = &v
		}
	}
}
