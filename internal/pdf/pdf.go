package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	lpdf "github.com/ledongthuc/pdf"
	rscpdf "rsc.io/pdf"
)

// ErrNoText is reported when a PDF parses but yields no usable text.
var ErrNoText = errors.New("no text extracted from PDF")

// ExtractionError means the uploaded bytes could not be turned into text.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

type parser struct {
	name  string
	parse func(r io.ReaderAt, size int64) (text string, pages int, err error)
}

// Extractor tries each parser in turn until one returns non-blank text.
type Extractor struct {
	parsers []parser
}

// NewExtractor reads with ledongthuc/pdf, which keeps word spacing, and
// falls back to rsc.io/pdf.
func NewExtractor() *Extractor {
	return &Extractor{parsers: []parser{
		{"ledongthuc", extractLedongthuc},
		{"rsc", extractRSC},
	}}
}

// ExtractText returns the text of the PDF at path and its page count.
// Every failure, including empty output, is an *ExtractionError.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", 0, &ExtractionError{Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", 0, &ExtractionError{Err: err}
	}

	var errs []error
	for _, p := range e.parsers {
		txt, pages, err := p.parse(f, fi.Size())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
			continue
		}
		txt = strings.ReplaceAll(txt, "\x00", "")
		if strings.TrimSpace(txt) == "" {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, ErrNoText))
			continue
		}
		return txt, pages, nil
	}
	return "", 0, &ExtractionError{Err: errors.Join(errs...)}
}

func extractLedongthuc(r io.ReaderAt, size int64) (text string, pages int, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed pdf: %v", p)
		}
	}()

	rd, err := lpdf.NewReader(r, size)
	if err != nil {
		return "", 0, fmt.Errorf("error creating PDF reader: %w", err)
	}

	b, err := rd.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("could not read content of pdf: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", 0, err
	}
	return buf.String(), rd.NumPage(), nil
}

// extractRSC rebuilds spacing from glyph positions: rsc.io/pdf reports one
// Text per glyph and does not emit the gaps between words or lines.
func extractRSC(r io.ReaderAt, size int64) (text string, pages int, err error) {
	// rsc.io/pdf panics on some malformed content streams.
	defer func() {
		if p := recover(); p != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed pdf: %v", p)
		}
	}()

	rd, err := rscpdf.NewReader(r, size)
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	n := rd.NumPage()
	for i := 1; i <= n; i++ {
		p := rd.Page(i)
		if p.V.IsNull() {
			continue
		}
		writeGlyphs(&sb, p.Content().Text)
		sb.WriteString("\n")
	}
	return sb.String(), n, nil
}

func writeGlyphs(sb *strings.Builder, glyphs []rscpdf.Text) {
	for i, t := range glyphs {
		if i > 0 {
			prev := glyphs[i-1]
			lineH := math.Max(prev.FontSize, 1)
			switch {
			case math.Abs(t.Y-prev.Y) > lineH/2:
				sb.WriteString("\n")
			case prev.W > 0 && t.X-(prev.X+prev.W) > lineH*0.15 &&
				!strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " "):
				sb.WriteString(" ")
			}
		}
		sb.WriteString(t.S)
	}
}

func IsPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
