package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkPages_ShortPageSingleChunk(t *testing.T) {
	pages := []PageText{{Page: 1, Text: "forklift operators must complete training"}}

	chunks := ChunkPages(pages)

	require.Len(t, chunks, 1)
	assert.Equal(t, "p1_c0", chunks[0].ID)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, pages[0].Text, chunks[0].Text)
}

func TestChunkPages_LongPageOverlaps(t *testing.T) {
	text := strings.Repeat("a", ChunkSize+1000)
	chunks := ChunkPages([]PageText{{Page: 3, Text: text}})

	require.Len(t, chunks, 2)
	assert.Equal(t, "p3_c0", chunks[0].ID)
	assert.Equal(t, "p3_c1", chunks[1].ID)
	assert.Len(t, chunks[0].Text, ChunkSize)

	// Second chunk starts one step in, so the tail of chunk 0 repeats.
	step := ChunkSize - ChunkOverlap
	assert.Equal(t, text[step:], chunks[1].Text)
}

func TestChunkPages_IDsUniquePerPage(t *testing.T) {
	text := strings.Repeat("b", 3*ChunkSize)
	chunks := ChunkPages([]PageText{
		{Page: 1, Text: text},
		{Page: 2, Text: "short"},
	})

	seen := make(map[string]bool)
	for _, c := range chunks {
		assert.False(t, seen[c.ID], "duplicate chunk ID %s", c.ID)
		seen[c.ID] = true
	}
	assert.True(t, seen["p2_c0"])
}

func TestChunkPages_StopsAtTotalCap(t *testing.T) {
	// 20 pages of full-size chunks would exceed the cap well before the end.
	var pages []PageText
	for i := 1; i <= 20; i++ {
		pages = append(pages, PageText{Page: i, Text: strings.Repeat("c", ChunkSize)})
	}

	chunks := ChunkPages(pages)

	total := 0
	for _, c := range chunks {
		total += len(c.Text)
	}
	assert.Greater(t, total, MaxTotalChars)
	assert.LessOrEqual(t, total, MaxTotalChars+ChunkSize)
	assert.Less(t, len(chunks), 20)
}

func TestChunkPages_Empty(t *testing.T) {
	assert.Empty(t, ChunkPages(nil))
	assert.Empty(t, ChunkPages([]PageText{}))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a  b\t\nc", "a b c"},
		{"trims ends", "  hello  ", "hello"},
		{"strips soft hyphen", "haz­ard", "hazard"},
		{"nbsp to space", "lockout tagout", "lockout tagout"},
		{"expands ligatures", "ﬁre conﬂict", "fire conflict"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestReadPages_MissingFile(t *testing.T) {
	_, err := ReadPages("/nonexistent/file.pdf", 0)
	require.Error(t, err)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "/nonexistent/file.pdf", extErr.Path)
}
