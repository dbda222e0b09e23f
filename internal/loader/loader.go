// Package loader parses an uploaded document into ordered text segments.
//
// The file extension is the only discriminant: it is parsed once into a Kind
// and every Kind has exactly one handler. Unknown extensions produce an empty
// result rather than an error so the caller can report "unsupported format".
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrDecode is returned when a text-based document is not valid UTF-8.
var ErrDecode = errors.New("document is not valid UTF-8")

// Kind is the parsed format of a document.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPDF
	KindText
	KindCSV
	KindDOCX
	KindMarkdown
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindText:
		return "txt"
	case KindCSV:
		return "csv"
	case KindDOCX:
		return "docx"
	case KindMarkdown:
		return "md"
	default:
		return "unsupported"
	}
}

// KindOf maps a file name to its Kind by extension, case-insensitively.
func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".txt":
		return KindText
	case ".csv":
		return KindCSV
	case ".docx":
		return KindDOCX
	case ".md", ".markdown":
		return KindMarkdown
	default:
		return KindUnsupported
	}
}

// Supported reports whether name has an extension the loader can parse.
func Supported(name string) bool {
	return KindOf(name) != KindUnsupported
}

// Document is an uploaded file: its declared name and raw bytes.
type Document struct {
	Name    string
	Content []byte
}

// Units a segment position is counted in.
const (
	UnitPage      = "page"
	UnitRow       = "row"
	UnitParagraph = "paragraph"
	UnitFile      = "file"
	UnitSection   = "section"
)

// Segment is one unit of parsed content with its location in the source.
//
// Position is 1-based for pages, paragraphs and sections and 0-based for CSV
// rows, matching the row numbers CSV tooling reports.
type Segment struct {
	Text     string
	Source   string
	Kind     Kind
	Unit     string
	Position int
	Section  string
}

// Location renders the segment location, e.g. "page 2".
func (s Segment) Location() string {
	if s.Unit == UnitFile {
		return s.Source
	}
	if s.Unit == UnitSection && s.Section != "" {
		return fmt.Sprintf("%s %q", s.Unit, s.Section)
	}
	return fmt.Sprintf("%s %d", s.Unit, s.Position)
}

// Load parses doc according to its Kind.
func Load(doc Document) ([]Segment, error) {
	source := filepath.Base(doc.Name)

	switch KindOf(doc.Name) {
	case KindPDF:
		return loadPDF(source, doc.Content)
	case KindText:
		return loadText(source, doc.Content)
	case KindCSV:
		return loadCSV(source, doc.Content)
	case KindDOCX:
		return loadDOCX(source, doc.Content)
	case KindMarkdown:
		return loadMarkdown(source, doc.Content)
	default:
		return nil, nil
	}
}

// LoadFile reads path and parses it. Unsupported files are not read at all.
func LoadFile(path string) ([]Segment, error) {
	if !Supported(path) {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return Load(Document{Name: path, Content: content})
}
