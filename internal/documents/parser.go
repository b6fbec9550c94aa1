package documents

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Loader extracts page-level text from a document
type Loader interface {
	Load(filePath string) ([]string, error)
}

// PDFLoader reads PDF files with MuPDF
type PDFLoader struct{}

// NewPDFLoader creates a new PDF loader
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load returns the text of every page in order. Pages whose text cannot be
// extracted are returned empty so page numbers stay aligned.
func (l *PDFLoader) Load(filePath string) ([]string, error) {
	if ext := strings.ToLower(filepath.Ext(filePath)); ext != ".pdf" {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, doc.NumPage())
	for i := range pages {
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		pages[i] = text
	}
	return pages, nil
}
