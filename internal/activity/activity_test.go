package activity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func testRecord() Record {
	return Record{
		Timestamp:  testTime,
		Actor:      "ana",
		Action:     ActionEntryAdd,
		Details:    "Mercado, com vírgula",
		EntryID:    "2026-03-001",
		CommitHash: "abc1234",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testRecord()))

	records, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ana", records[0].Actor)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Equal(t, Header+"\n", string(data[:len(Header)+1]))
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, testRecord()))

	r2 := testRecord()
	r2.Action = ActionEntryRemove
	require.NoError(t, Append(dir, r2))

	records, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ActionEntryAdd, records[0].Action)
	assert.Equal(t, ActionEntryRemove, records[1].Action)
}

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := testRecord()
	require.NoError(t, Append(dir, original))

	records, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.True(t, original.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, original.Details, got.Details)
	assert.Equal(t, original.EntryID, got.EntryID)
	assert.Equal(t, original.CommitHash, got.CommitHash)
}

func TestRead_NotFound(t *testing.T) {
	records, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestRead_HeaderOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(Path(dir), []byte(Header+"\n"), 0o644))

	records, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestTail(t *testing.T) {
	dir := t.TempDir()
	for _, action := range []string{ActionCardAdd, ActionEntryAdd, ActionEntryEdit} {
		r := testRecord()
		r.Action = action
		require.NoError(t, Append(dir, r))
	}

	last, err := Tail(dir, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, ActionEntryAdd, last[0].Action)
	assert.Equal(t, ActionEntryEdit, last[1].Action)

	all, err := Tail(dir, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUnmarshalRecord_BadFieldCount(t *testing.T) {
	_, err := UnmarshalRecord([]string{"one", "two"})
	assert.ErrorContains(t, err, "expected 6 fields")
}

func TestTimestampFormat(t *testing.T) {
	r := testRecord()
	r.Timestamp = time.Date(2026, 3, 15, 7, 30, 0, 0, time.FixedZone("BRT", -3*3600))
	assert.Equal(t, "2026-03-15T10:30:00Z", MarshalRecord(r)[0])
}
