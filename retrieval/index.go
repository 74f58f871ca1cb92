package retrieval

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/chedhq/ched/core"
	"github.com/chedhq/ched/logging"
)

// storedChunk is the internal representation persisted by Index.
type storedChunk struct {
	ID      string
	Content string
	Source  string
	tokens  map[string]struct{}
}

// Index is a process-local namespaced document index. Scoring is token
// overlap between query and chunk, normalized to [0,1]; distance is
// 1 - score.
//
// Concurrency: protected by RWMutex. Suitable for a single-process
// deployment; swap for a vector database behind the same interface when the
// corpus outgrows memory.
type Index struct {
	mu      sync.RWMutex
	storage map[string]map[string]storedChunk // namespace -> chunkID -> chunk
	logger  logging.Logger

	chunkSize    int
	chunkOverlap int
}

// IndexOption mutates index construction.
type IndexOption func(*Index)

// WithChunking overrides the default chunk window and overlap.
func WithChunking(size, overlap int) IndexOption {
	return func(i *Index) {
		i.chunkSize = size
		i.chunkOverlap = overlap
	}
}

// WithLogger sets the index logger.
func WithLogger(l logging.Logger) IndexOption {
	return func(i *Index) { i.logger = l }
}

// NewIndex creates an empty index.
func NewIndex(opts ...IndexOption) *Index {
	idx := &Index{
		storage:      make(map[string]map[string]storedChunk),
		logger:       logging.NoOpLogger{},
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Ingest loads, chunks and stores the documents at the given paths under the
// namespace. Unreadable or unsupported files are skipped with a warning;
// ingestion is best-effort so one bad upload does not block the rest.
func (i *Index) Ingest(paths []string, namespace string) error {
	var ingested int
	for _, path := range paths {
		text, err := LoadText(path)
		if err != nil {
			i.logger.Warn("ingest.skip", "path", path, "error", err.Error())
			continue
		}
		source := filepath.Base(path)
		chunks := SplitText(text, i.chunkSize, i.chunkOverlap)
		i.mu.Lock()
		ns, exists := i.storage[namespace]
		if !exists {
			ns = make(map[string]storedChunk)
			i.storage[namespace] = ns
		}
		for _, c := range chunks {
			id := uuid.NewString()
			ns[id] = storedChunk{ID: id, Content: c, Source: source, tokens: tokenize(c)}
		}
		i.mu.Unlock()
		ingested += len(chunks)
		i.logger.Info("ingest.done", "source", source, "namespace", namespace, "chunks", len(chunks))
	}
	if ingested == 0 && len(paths) > 0 {
		return fmt.Errorf("no ingestable content in %d file(s)", len(paths))
	}
	return nil
}

// IngestText stores raw text directly under the namespace, attributed to the
// given source name.
func (i *Index) IngestText(text, source, namespace string) {
	chunks := SplitText(text, i.chunkSize, i.chunkOverlap)
	i.mu.Lock()
	defer i.mu.Unlock()
	ns, exists := i.storage[namespace]
	if !exists {
		ns = make(map[string]storedChunk)
		i.storage[namespace] = ns
	}
	for _, c := range chunks {
		id := uuid.NewString()
		ns[id] = storedChunk{ID: id, Content: c, Source: source, tokens: tokenize(c)}
	}
}

// Retrieve returns up to k snippets from the namespace ranked by overlap
// score, best first. Zero-score chunks are omitted.
func (i *Index) Retrieve(query, namespace string, k int) []core.Snippet {
	if k <= 0 {
		k = 5
	}
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	i.mu.RLock()
	ns := i.storage[namespace]
	scored := make([]core.Snippet, 0, len(ns))
	for _, chunk := range ns {
		score := overlapScore(queryTokens, chunk.tokens)
		if score <= 0 {
			continue
		}
		scored = append(scored, core.Snippet{Content: chunk.Content, Score: score, Source: chunk.Source})
	}
	i.mu.RUnlock()

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Forget drops an entire namespace.
func (i *Index) Forget(namespace string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.storage, namespace)
}

// Size returns the number of stored chunks in a namespace.
func (i *Index) Size(namespace string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.storage[namespace])
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// one-character tokens.
func tokenize(text string) map[string]struct{} {
	tokens := map[string]struct{}{}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// overlapScore is |query ∩ chunk| / |query|.
func overlapScore(query, chunk map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	var hits int
	for t := range query {
		if _, ok := chunk[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
