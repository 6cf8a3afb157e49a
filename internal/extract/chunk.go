package extract

import "fmt"

const (
	// ChunkSize is the number of characters per chunk.
	ChunkSize = 8000
	// ChunkOverlap is the number of characters shared between adjacent chunks.
	ChunkOverlap = 500
	// MaxTotalChars caps the accumulated text across all chunks of a document.
	MaxTotalChars = 120000
)

// Chunk is a window of page text sized for a single model call.
type Chunk struct {
	ID   string // "p{page}_c{index}", index counted per page
	Page int
	Text string
}

// ChunkPages splits page texts into overlapping fixed-size chunks.
// Chunking stops once the accumulated character total exceeds MaxTotalChars,
// so pathological documents cannot produce unbounded model calls.
func ChunkPages(pages []PageText) []Chunk {
	var chunks []Chunk
	total := 0

	for _, p := range pages {
		text := p.Text
		step := ChunkSize - ChunkOverlap

		index := 0
		for start := 0; start < len(text); start += step {
			end := start + ChunkSize
			if end > len(text) {
				end = len(text)
			}

			chunks = append(chunks, Chunk{
				ID:   fmt.Sprintf("p%d_c%d", p.Page, index),
				Page: p.Page,
				Text: text[start:end],
			})
			index++
			total += end - start

			if total > MaxTotalChars {
				return chunks
			}
			if end == len(text) {
				break
			}
		}
	}

	return chunks
}
