package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIDAcceptsStringAndNumber(t *testing.T) {
	var todos []Todo
	err := json.Unmarshal([]byte(`[{"id":"a1","text":"x"},{"id":42,"text":"y"}]`), &todos)
	require.NoError(t, err)
	require.Equal(t, ID("a1"), todos[0].ID)
	require.Equal(t, ID("42"), todos[1].ID)
}

func TestIDRejectsObjects(t *testing.T) {
	var todo Todo
	err := json.Unmarshal([]byte(`{"id":{"x":1},"text":"x"}`), &todo)
	require.Error(t, err)
}

func TestDateTruncatesTimestamps(t *testing.T) {
	require.Equal(t, "2025-06-08", Todo{CreatedAt: "2025-06-08T13:45:00Z"}.Date())
	require.Equal(t, "2025-06-08", Todo{CreatedAt: "2025-06-08"}.Date())
	require.Equal(t, "", Todo{}.Date())
}

func TestCreationDateUsesKST(t *testing.T) {
	// 16:00 UTC is already the next day in UTC+9.
	now := time.Date(2025, 6, 8, 16, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-06-09", CreationDate(now))

	// The caller's zone does not matter.
	ny := time.FixedZone("EST", -5*60*60)
	require.Equal(t, "2025-06-09", CreationDate(now.In(ny)))

	require.Equal(t, "2025-06-08", CreationDate(time.Date(2025, 6, 8, 14, 59, 0, 0, time.UTC)))
}

func TestNewDraftIsNotCompleted(t *testing.T) {
	b, err := json.Marshal(NewDraft("buy milk"))
	require.NoError(t, err)
	require.JSONEq(t, `{"text":"buy milk","completed":false}`, string(b))

	b, err = json.Marshal(Draft{Text: "edit"})
	require.NoError(t, err)
	require.JSONEq(t, `{"text":"edit"}`, string(b))
}

func TestParseSortMode(t *testing.T) {
	for _, m := range SortModes() {
		got, err := ParseSortMode(string(m))
		require.NoError(t, err)
		require.Equal(t, m, got)
	}

	got, err := ParseSortMode("")
	require.NoError(t, err)
	require.Equal(t, SortAll, got)

	_, err = ParseSortMode("priority")
	require.Error(t, err)
}

func TestSortModeNextWraps(t *testing.T) {
	require.Equal(t, SortLatest, SortAll.Next())
	require.Equal(t, SortAll, SortNotCompleted.Next())
	require.Equal(t, SortAll, SortMode("bogus").Next())
}

func TestIsBlank(t *testing.T) {
	require.True(t, IsBlank(""))
	require.True(t, IsBlank("  \t\n"))
	require.False(t, IsBlank(" a "))
}
