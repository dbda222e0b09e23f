package loader

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// loadPDF emits one segment per page in page order. Pages without extractable
// text still produce a (blank) segment so positions match page numbers.
func loadPDF(source string, content []byte) (segments []Segment, err error) {
	// the parser panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = fmt.Errorf("%s: malformed pdf: %v", source, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open pdf: %w", source, err)
	}

	total := reader.NumPage()
	segments = make([]Segment, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to extract page %d: %w", source, i, err)
		}

		segments = append(segments, Segment{
			Text:     text,
			Source:   source,
			Kind:     KindPDF,
			Unit:     UnitPage,
			Position: i,
		})
	}

	return segments, nil
}
