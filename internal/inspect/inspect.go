// Package inspect reads structural metadata out of uploaded files. Every
// probe is best effort: a file that cannot be parsed simply yields no data.
package inspect

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupported is returned for media types with no page model.
var ErrUnsupported = errors.New("inspect: unsupported media type")

// PageCount returns the number of pages in a PDF or DOCX payload.
func PageCount(r io.ReaderAt, size int64, mimeType string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0])) {
	case mimePDF:
		return pdfPages(r, size)
	case mimeDOCX:
		return docxPages(r, size)
	default:
		return 0, ErrUnsupported
	}
}

func pdfPages(r io.ReaderAt, size int64) (n int, err error) {
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			n, err = 0, fmt.Errorf("inspect pdf: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("inspect pdf: %w", err)
	}
	pages := reader.NumPage()
	if pages <= 0 {
		return 0, errors.New("inspect pdf: no pages")
	}
	return pages, nil
}

// docxPages reads the page count Word stores in docProps/app.xml.
func docxPages(r io.ReaderAt, size int64) (int, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("inspect docx: %w", err)
	}

	var props *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "docProps/app.xml" {
			props = f
			break
		}
	}
	if props == nil {
		return 0, errors.New("inspect docx: docProps/app.xml not found")
	}

	rc, err := props.Open()
	if err != nil {
		return 0, fmt.Errorf("inspect docx: %w", err)
	}
	defer rc.Close()

	var app struct {
		Pages int `xml:"Pages"`
	}
	if err := xml.NewDecoder(io.LimitReader(rc, 1<<20)).Decode(&app); err != nil {
		return 0, fmt.Errorf("inspect docx: %w", err)
	}
	if app.Pages <= 0 {
		return 0, errors.New("inspect docx: no page count")
	}
	return app.Pages, nil
}
