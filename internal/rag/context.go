package rag

import (
	"fmt"
	"strings"

	"github.com/dream-ai/ragchat/internal/documents"
)

// NoContextFound is the context used when retrieval returns nothing
const NoContextFound = "No specific context found in the documents."

// FormatContext renders retrieved chunks as labelled blocks
func FormatContext(chunks []documents.Chunk) string {
	if len(chunks) == 0 {
		return NoContextFound
	}

	parts := make([]string, 0, len(chunks))
	for n, c := range chunks {
		label := fmt.Sprintf("[Source %d: %s", n+1, c.Metadata.Source)
		if c.Metadata.Page > 0 {
			label += fmt.Sprintf(", page %d", c.Metadata.Page)
		}
		parts = append(parts, label+"]\n"+strings.TrimSpace(c.Text))
	}
	return strings.Join(parts, "\n\n")
}

// hasContext reports whether context carries retrieved text
func hasContext(retrieved string) bool {
	retrieved = strings.TrimSpace(retrieved)
	return retrieved != "" && retrieved != NoContextFound
}
