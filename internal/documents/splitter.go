package documents

import (
	"strings"
	"unicode/utf8"
)

// Default splitter settings
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// defaultSeparators are tried in order: paragraph, line, sentence, word, character
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Metadata describes where a chunk came from
type Metadata struct {
	Source string
	Page   int
}

// Chunk is a bounded slice of document text
type Chunk struct {
	Text     string
	Metadata Metadata
}

// Splitter breaks text into overlapping chunks, preferring natural boundaries
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter creates a splitter. Non-positive size falls back to the default and an
// overlap that does not fit inside a chunk is reduced to a quarter of the chunk size.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// ChunkSize returns the maximum chunk length in characters
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap in characters
func (s *Splitter) Overlap() int { return s.overlap }

// SplitPages splits every page of one document and tags the chunks with source and page number.
// Page order is preserved and blank chunks are dropped.
func (s *Splitter) SplitPages(source string, pages []string) []Chunk {
	var chunks []Chunk
	for i, page := range pages {
		for _, text := range s.SplitText(page) {
			chunks = append(chunks, Chunk{
				Text:     text,
				Metadata: Metadata{Source: source, Page: i + 1},
			})
		}
	}
	return chunks
}

// SplitText splits a single text into trimmed, non-empty chunks
func (s *Splitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if length(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			if t := strings.TrimSpace(piece); t != "" {
				final = append(final, t)
			}
			continue
		}
		final = append(final, s.split(piece, rest)...)
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge combines small pieces into chunks of at most chunkSize, carrying up to overlap
// characters of the previous chunk into the next one.
func (s *Splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := length(piece)
		if total+n > s.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				chunks = append(chunks, doc)
			}
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		chunks = append(chunks, doc)
	}
	return chunks
}

// splitKeepingSeparator splits text on sep, leaving each separator at the end of the
// piece it terminates. An empty separator splits into single characters.
func splitKeepingSeparator(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, p := range parts {
		if i < len(parts)-1 {
			p += sep
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
