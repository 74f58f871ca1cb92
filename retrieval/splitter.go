package retrieval

import "strings"

// Chunking defaults: window size and overlap in characters.
const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 150
)

// SplitText cuts text into overlapping chunks of roughly chunkSize
// characters, preferring to break on whitespace near the window edge.
func SplitText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = defaultChunkOverlap
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	step := chunkSize - overlap
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}
		// back off to the nearest whitespace so words stay whole
		cut := end
		for cut > start+step && !unicodeSpace(runes[cut-1]) {
			cut--
		}
		if cut == start+step {
			cut = end
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))
	}

	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func unicodeSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
