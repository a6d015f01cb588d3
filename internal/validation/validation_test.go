package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/model"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func msPtr(v int64) *int64    { return &v }

func TestRating(t *testing.T) {
	for _, ok := range []int{1, 5, 10} {
		r, err := Rating(intPtr(ok))
		require.NoError(t, err)
		assert.Equal(t, ok, *r)
	}
	for _, bad := range []int{0, 11, -3} {
		_, err := Rating(intPtr(bad))
		assert.ErrorIs(t, err, apperr.ErrValidation, "rating %d", bad)
	}

	r, err := Rating(nil)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestTags(t *testing.T) {
	tags, err := Tags([]string{" Horror ", "horror", "HORROR", "cult", "", "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Horror", "cult"}, tags)

	_, err = Tags([]string{strings.Repeat("x", 51)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	many := make([]string, 21)
	for i := range many {
		many[i] = string(rune('a' + i))
	}
	_, err = Tags(many)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	// 去重后不超过上限即可
	dup := append(many[:20:20], "A")
	tags, err = Tags(dup)
	require.NoError(t, err)
	assert.Len(t, tags, 20)

	tags, err = Tags(nil)
	require.NoError(t, err)
	assert.Nil(t, tags)
}

func TestNotes(t *testing.T) {
	n, err := Notes("  <b>great</b> <script>alert(1)</script>movie  ")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "great movie", *n)

	n, err = Notes("plain a < b text")
	require.NoError(t, err)
	assert.Equal(t, "plain a < b text", *n)

	n, err = Notes("   ")
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = Notes(strings.Repeat("a", 2001))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPriority(t *testing.T) {
	p, err := Priority(strPtr(" High "))
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, *p)

	p, err = Priority(strPtr(""))
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = Priority(strPtr("urgent"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEmail(t *testing.T) {
	e, err := Email("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", e)

	_, err = Email("not-an-email")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListName(t *testing.T) {
	n, err := ListName("  Horror\x00 ")
	require.NoError(t, err)
	assert.Equal(t, "Horror", n)

	_, err = ListName("   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = ListName(strings.Repeat("名", 101))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSearchQuery(t *testing.T) {
	q, err := SearchQuery("  The Thing ")
	require.NoError(t, err)
	assert.Equal(t, "the thing", q)

	_, err = SearchQuery("  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDates(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour).UnixMilli()
	earlier := now.Add(-72 * time.Hour).UnixMilli()

	assert.NoError(t, Dates(msPtr(earlier), msPtr(past), now))
	assert.NoError(t, Dates(nil, msPtr(past), now))
	assert.NoError(t, Dates(nil, nil, now))

	err := Dates(msPtr(past), msPtr(earlier), now)
	assert.ErrorIs(t, err, apperr.ErrValidation, "finish before start")

	future := now.Add(72 * time.Hour).UnixMilli()
	assert.ErrorIs(t, Dates(msPtr(future), nil, now), apperr.ErrValidation)

	// 容差内的"未来"时间允许
	assert.NoError(t, Dates(msPtr(now.Add(time.Hour).UnixMilli()), nil, now))
}

func TestEnums(t *testing.T) {
	_, err := Status("paused")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	st, err := Status("watched")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWatched, st)

	_, err = Kind("person")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	s, err := Sort("")
	require.NoError(t, err)
	assert.Equal(t, model.SortAddedDesc, s)
	_, err = Sort("random")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = MemberRole("creator")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.ErrorIs(t, SeasonNumber(0), apperr.ErrValidation)
	assert.NoError(t, SeasonNumber(1))
}

func TestAvatarURL(t *testing.T) {
	u, err := AvatarURL(strPtr("https://img.example.com/a.png"))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/a.png", *u)

	_, err = AvatarURL(strPtr("javascript:alert(1)"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	u, err = AvatarURL(nil)
	require.NoError(t, err)
	assert.Nil(t, u)
}
