package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Value float64 `json:"value"`
	Day   Date    `json:"day"`
}

func TestJSONStoreRoundTripCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	store := NewJSONStore[entry](path)
	day, err := ParseDate("2024-03-05")
	require.NoError(t, err)

	require.NoError(t, store.Save(map[string]entry{"AAPL": {Value: 1.5, Day: day}}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"day": "2024-03-05"`)

	loaded := store.Load()
	require.Contains(t, loaded, "AAPL")
	assert.Equal(t, 1.5, loaded["AAPL"].Value)
	assert.Equal(t, "2024-03-05", loaded["AAPL"].Day.String())
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	store := NewJSONStore[entry](filepath.Join(t.TempDir(), "missing.json"))
	assert.Empty(t, store.Load())
}

func TestJSONStoreCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	assert.Empty(t, NewJSONStore[entry](path).Load())

	require.NoError(t, os.WriteFile(path, []byte(`{"AAPL": {"value": 1, "day": "yesterday"}}`), 0o600))
	assert.Empty(t, NewJSONStore[entry](path).Load())

	require.NoError(t, os.WriteFile(path, []byte(`null`), 0o600))
	assert.NotNil(t, NewJSONStore[entry](path).Load())
}

func TestDateArithmetic(t *testing.T) {
	day := NewDate(time.Date(2024, 2, 28, 17, 30, 0, 0, time.FixedZone("X", 3600)))
	assert.Equal(t, "2024-02-28", day.String())
	assert.Equal(t, "2024-03-01", day.AddDays(2).String())
	assert.Equal(t, 2, day.AddDays(2).DaysSince(day))
	assert.Equal(t, -1, day.AddDays(-1).DaysSince(day))
}

func TestDateJSON(t *testing.T) {
	var parsed struct {
		Day Date `json:"day"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2023-12-31"}`), &parsed))
	assert.Equal(t, "2023-12-31", parsed.Day.String())

	assert.Error(t, json.Unmarshal([]byte(`{"day":12}`), &parsed))
}

func TestMemoryStoreCopies(t *testing.T) {
	store := &MemoryStore[int]{Data: map[string]int{"A": 1}}
	loaded := store.Load()
	loaded["B"] = 2
	assert.NotContains(t, store.Data, "B")

	require.NoError(t, store.Save(loaded))
	assert.Equal(t, 1, store.Saves)
	assert.Equal(t, 2, store.Data["B"])
}
