package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type datesBody struct {
	Started  DateUpdate `json:"started_at"`
	Finished DateUpdate `json:"finished_at"`
}

func TestDateUpdateJSON(t *testing.T) {
	var body datesBody
	require.NoError(t, json.Unmarshal([]byte(`{"started_at": null}`), &body))
	assert.True(t, body.Started.IsClear())
	assert.True(t, body.Finished.IsUnchanged())

	require.NoError(t, json.Unmarshal([]byte(`{"finished_at": 1772366400000}`), &body))
	v, ok := body.Finished.Value()
	assert.True(t, ok)
	assert.Equal(t, int64(1772366400000), v)

	assert.Error(t, json.Unmarshal([]byte(`{"started_at": "yesterday"}`), &body))
}

func TestDateUpdateApply(t *testing.T) {
	current := int64(100)

	assert.Equal(t, &current, Unchanged().Apply(&current))
	assert.Nil(t, ClearDate().Apply(&current))

	got := SetDate(200).Apply(&current)
	require.NotNil(t, got)
	assert.Equal(t, int64(200), *got)
	assert.Equal(t, int64(100), current)
}
