package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoDocumentXML = errors.New("word/document.xml not found")

func loadDOCX(source string, content []byte) ([]Segment, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%s: not a docx archive: %w", source, err)
	}

	rc, err := openDocumentXML(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	defer rc.Close()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse document.xml: %w", source, err)
	}

	segments := make([]Segment, 0, len(paragraphs))
	for _, text := range paragraphs {
		segments = append(segments, Segment{
			Text:     text,
			Source:   source,
			Kind:     KindDOCX,
			Unit:     UnitParagraph,
			Position: len(segments) + 1,
		})
	}

	return segments, nil
}

func openDocumentXML(reader *zip.Reader) (io.ReadCloser, error) {
	for _, file := range reader.File {
		if file.Name == "word/document.xml" {
			return file.Open()
		}
	}
	return nil, errNoDocumentXML
}

// docxParagraphs walks document.xml and returns the non-blank text of every
// w:p at any depth: body, table cells, content controls, text boxes.
// Runs inside hyperlinks count as ordinary runs. w:tab becomes a tab and
// w:br / w:cr a newline; deleted text and field codes are skipped.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		open   []*strings.Builder // вложенные абзацы (текстовые поля внутри абзаца)
		result []string
		inRun  int
		inText int
	)

	current := func() *strings.Builder {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "r":
				inRun++
			case "t":
				inText++
			case "tab":
				// w:tab в w:pPr/w:tabs - это позиция табуляции, не текст
				if b := current(); b != nil && inRun > 0 {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if b := current(); b != nil && inRun > 0 {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "p":
				if b := current(); b != nil {
					open = open[:len(open)-1]
					if text := strings.TrimSpace(b.String()); text != "" {
						result = append(result, text)
					}
				}
			case "r":
				if inRun > 0 {
					inRun--
				}
			case "t":
				if inText > 0 {
					inText--
				}
			}
		case xml.CharData:
			if b := current(); b != nil && inText > 0 {
				b.Write(el)
			}
		}
	}

	return result, nil
}
