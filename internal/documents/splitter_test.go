package documents

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numberedWords builds non-repeating text so overlaps can be located unambiguously
func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%04d", i)
	}
	return strings.Join(words, " ")
}

// sharedBoundary returns the length of the longest prefix of next that is a suffix of prev
func sharedBoundary(prev, next string) int {
	for k := min(len(prev), len(next)); k > 0; k-- {
		if strings.HasSuffix(prev, next[:k]) {
			return k
		}
	}
	return 0
}

func TestNewSplitter(t *testing.T) {
	t.Run("defaults for invalid size", func(t *testing.T) {
		s := NewSplitter(0, -5)
		assert.Equal(t, DefaultChunkSize, s.ChunkSize())
		assert.Equal(t, 0, s.Overlap())
	})

	t.Run("overlap larger than chunk", func(t *testing.T) {
		s := NewSplitter(100, 150)
		assert.Equal(t, 25, s.Overlap())
	})
}

func TestSplitText_Empty(t *testing.T) {
	s := NewSplitter(1000, 100)
	assert.Empty(t, s.SplitText(""))
	assert.Empty(t, s.SplitText("   \n\n  \t "))
}

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 100)
	chunks := s.SplitText("  Admissions open in June.  ")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Admissions open in June.", chunks[0])
}

func TestSplitText_2500CharPage(t *testing.T) {
	s := NewSplitter(1000, 100)
	text := numberedWords(417)
	require.Equal(t, 2501, len(text))

	chunks := s.SplitText(text)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000, "chunk %d too long", i)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
	for i := 1; i < len(chunks); i++ {
		shared := sharedBoundary(chunks[i-1], chunks[i])
		assert.Greater(t, shared, 0, "chunks %d and %d do not overlap", i-1, i)
		assert.LessOrEqual(t, shared, 100)
	}
	assert.True(t, strings.HasPrefix(chunks[0], "w0000"))
	assert.True(t, strings.HasSuffix(chunks[2], "w0416"))
}

func TestSplitText_PrefersParagraphs(t *testing.T) {
	s := NewSplitter(1000, 100)
	first := strings.TrimSpace(strings.Repeat("first paragraph text ", 30))
	second := strings.TrimSpace(strings.Repeat("second paragraph text ", 30))

	chunks := s.SplitText(first + "\n\n" + second)
	require.Len(t, chunks, 2)
	assert.Equal(t, first, chunks[0])
	assert.Equal(t, second, chunks[1])
}

func TestSplitText_SentencesBeforeWords(t *testing.T) {
	s := NewSplitter(60, 0)
	text := "The campus is large and green. Fees are due every semester. Hostels are available."

	chunks := s.SplitText(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "The campus is large and green. Fees are due every semester.", chunks[0])
	assert.Equal(t, "Hostels are available.", chunks[1])
}

func TestSplitText_HardCutWithoutSeparators(t *testing.T) {
	s := NewSplitter(1000, 100)
	var b strings.Builder
	for i := 0; i < 2500; i++ {
		b.WriteByte(byte('a' + i%26))
	}

	chunks := s.SplitText(b.String())
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 700)
	assert.True(t, strings.HasSuffix(chunks[0], chunks[1][:100]))
	assert.True(t, strings.HasSuffix(chunks[1], chunks[2][:100]))
}

func TestSplitText_CountsCharactersNotBytes(t *testing.T) {
	s := NewSplitter(10, 0)
	chunks := s.SplitText(strings.Repeat("é", 25))
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 5, utf8.RuneCountInString(chunks[2]))
}

func TestSplitPages(t *testing.T) {
	s := NewSplitter(1000, 100)
	pages := []string{
		"Page one text.",
		"   ",
		numberedWords(417),
	}

	chunks := s.SplitPages("prospectus.pdf", pages)
	require.Len(t, chunks, 4)

	assert.Equal(t, "Page one text.", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].Metadata.Page)
	for _, c := range chunks {
		assert.Equal(t, "prospectus.pdf", c.Metadata.Source)
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
	}
	for _, c := range chunks[1:] {
		assert.Equal(t, 3, c.Metadata.Page)
	}
}
