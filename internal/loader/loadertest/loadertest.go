// Package loadertest builds small PDF and DOCX fixtures in memory for tests.
package loadertest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// DOCX writes a minimal docx archive; "|" inside a paragraph splits it into runs.
func DOCX(tb testing.TB, paragraphs ...string) []byte {
	tb.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p>")
		if p != "" {
			for _, r := range strings.Split(p, "|") {
				fmt.Fprintf(&body, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, r)
			}
		}
		body.WriteString("</w:p>")
	}

	return DOCXBody(tb, body.String())
}

// DOCXBody wraps raw WordprocessingML (the children of w:body, prefix "w")
// into a docx archive.
func DOCXBody(tb testing.TB, body string) []byte {
	tb.Helper()

	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		tb.Fatalf("create document.xml: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		tb.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}

// PDF writes an uncompressed PDF with one line of Helvetica text per page.
// Text must not contain parentheses or backslashes.
func PDF(tb testing.TB, pages ...string) []byte {
	tb.Helper()

	var buf bytes.Buffer
	var offsets []int
	obj := func(num int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(4+2*i, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+2*i,
		))
		obj(5+2*i, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}
