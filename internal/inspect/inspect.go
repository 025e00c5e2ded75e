// Package inspect performs sanity checks on rendered PDF output. It never
// touches documents the system did not produce itself.
package inspect

import (
	"bytes"
	"fmt"
	"io"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfHeader = []byte("%PDF-")

// Quick performs the cheap structural checks applied after every render:
// non-empty output, a PDF header, and at least one page.
func Quick(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("rendered document is empty")
	}
	if !bytes.HasPrefix(data, pdfHeader) {
		return fmt.Errorf("rendered document is missing the PDF header")
	}

	pages, err := PageCount(data)
	if err != nil {
		return err
	}
	if pages < 1 {
		return fmt.Errorf("rendered document has no pages")
	}
	return nil
}

func readContext(data []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// PageCount returns the number of pages in the rendered document.
func PageCount(data []byte) (int, error) {
	ctx, err := readContext(data)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// Validate runs pdfcpu's relaxed validation over the rendered document.
func Validate(data []byte) error {
	ctx, err := readContext(data)
	if err != nil {
		return err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}

// ExtractText pulls the plain text out of the rendered document so callers
// can confirm the fields they submitted actually made it onto the pages.
func ExtractText(data []byte) (string, error) {
	r, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open rendered document: %w", err)
	}

	textReader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	text, err := io.ReadAll(textReader)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted text: %w", err)
	}
	return string(text), nil
}
