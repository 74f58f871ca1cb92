package retrieval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextChunksWithOverlap(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 50)
	chunks := SplitText(text, 200, 50)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 200)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
	// consecutive chunks share text through the overlap window
	assert.True(t, strings.Contains(text, chunks[1][:20]))
}

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("tiny", 200, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0])

	assert.Empty(t, SplitText("   ", 200, 50))
}

func TestRetrieveRanksByOverlap(t *testing.T) {
	idx := NewIndex()
	idx.IngestText("The midterm exam covers sorting algorithms and recursion.", "week3.txt", "u1")
	idx.IngestText("Office hours are on Thursday afternoon in room 204.", "admin.txt", "u1")

	hits := idx.Retrieve("when is the midterm exam", "u1", 5)
	require.NotEmpty(t, hits)
	assert.Equal(t, "week3.txt", hits[0].Source)
	assert.Greater(t, hits[0].Score, 0.0)
	assert.LessOrEqual(t, hits[0].Score, 1.0)
}

func TestRetrieveNamespaceIsolation(t *testing.T) {
	idx := NewIndex()
	idx.IngestText("Secret thesis draft about distributed consensus.", "thesis.txt", "alice")

	assert.Empty(t, idx.Retrieve("thesis consensus", "bob", 5))
	assert.NotEmpty(t, idx.Retrieve("thesis consensus", "alice", 5))
}

func TestRetrieveCapsAtK(t *testing.T) {
	idx := NewIndex()
	for i := 0; i < 10; i++ {
		idx.IngestText("lecture notes about calculus and derivatives", "notes.txt", "u1")
	}
	hits := idx.Retrieve("calculus derivatives", "u1", 3)
	assert.Len(t, hits, 3)
}

func TestIngestSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("assignment two is due next friday"), 0o644))

	err := NewIndex().Ingest([]string{filepath.Join(dir, "missing.txt"), good}, "u1")
	assert.NoError(t, err)
}

func TestIngestAllBadFails(t *testing.T) {
	err := NewIndex().Ingest([]string{"/does/not/exist.txt"}, "u1")
	assert.Error(t, err)
}

func TestForget(t *testing.T) {
	idx := NewIndex()
	idx.IngestText("some content here", "a.txt", "u1")
	require.NotZero(t, idx.Size("u1"))

	idx.Forget("u1")
	assert.Zero(t, idx.Size("u1"))
}

func TestSupportedFormats(t *testing.T) {
	assert.True(t, Supported("syllabus.PDF"))
	assert.True(t, Supported("deck.pptx"))
	assert.True(t, Supported("notes.md"))
	assert.False(t, Supported("malware.exe"))

	_, err := LoadText("archive.zip")
	assert.Error(t, err)
}

func TestSalvageTextFromBinary(t *testing.T) {
	raw := append([]byte{0x00, 0x01, 0x02}, []byte("Lecture schedule for week one")...)
	raw = append(raw, 0x00, 0xFF)
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.ppt")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	text, err := LoadText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Lecture schedule")
}
