package export

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type pdfRenderer func(ctx context.Context, html string, title string) (*Result, error)

// Service provides itinerary export functionality
type Service struct {
	renderPDF pdfRenderer
}

// NewService creates a new export service printing PDFs through headless Chromium
func NewService() *Service {
	return &Service{renderPDF: exportPDF}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, itinerary Itinerary, format Format) (*Result, error) {
	html, err := RenderItineraryHTML(itinerary)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch format {
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(itinerary.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return s.renderPDF(ctx, html, itinerary.Title)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// sanitizeFilename creates a safe ASCII filename from a title
func sanitizeFilename(title string) string {
	if folded, _, err := transform.String(stripMarks, title); err == nil {
		title = folded
	}

	var result strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result.WriteRune(r)
		case r == ' ':
			result.WriteByte('-')
		case r == '-', r == '_':
			result.WriteRune(r)
		}
	}

	name := result.String()
	if len(name) > 50 {
		name = name[:50]
	}
	if name == "" {
		name = "guide"
	}
	return name
}
