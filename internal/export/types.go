// Package export renders guide itineraries as HTML or PDF.
package export

import (
	"errors"
	"strings"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts html or pdf in any case. A blank value means html.
func ParseFormat(value string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatHTML):
		return FormatHTML, true
	case string(FormatPDF):
		return FormatPDF, true
	default:
		return "", false
	}
}

// Itinerary is the guide content to export.
type Itinerary struct {
	Title         string
	Description   string
	Destination   string
	CoverImageURL string
	Mobility      string
	Season        string
	ForWho        string
	Days          []Day
	GeneratedAt   time.Time
}

// Day is one day of an itinerary, activities already in visit order.
type Day struct {
	Number     int
	Title      string
	Date       string
	Activities []Activity
}

type Activity struct {
	VisitOrder   int
	Title        string
	Description  string
	Category     string
	Address      string
	PhoneNumber  string
	OpeningHours string
	Website      string
	StartTime    string
	EndTime      string
	ForWho       string
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrUnsupportedFormat indicates an export format other than html or pdf.
	ErrUnsupportedFormat = errors.New("export format unsupported")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrPDFTimeout indicates Chromium did not finish printing within RenderTimeout.
	ErrPDFTimeout = errors.New("export pdf timed out")
)
