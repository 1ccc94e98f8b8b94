package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"notewise/internal/pkg/pdfextract"
	"notewise/internal/platform/logger"
)

// MinUsableChars is the shortest trimmed text any extraction path may return.
const MinUsableChars = 10

type Kind int

const (
	KindPlainText Kind = iota
	KindPDF
	KindBinary
)

// FileReader is a generative capability able to read a document and return
// its text.
type FileReader interface {
	ExtractFileText(ctx context.Context, filename, mimeType string, data []byte, maxTokens int) (string, error)
}

type Extractor struct {
	reader    FileReader
	maxTokens int
	log       *logger.Logger
}

// New builds an Extractor. reader may be nil, in which case the capability
// pass is skipped.
func New(reader FileReader, maxTokens int, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{reader: reader, maxTokens: maxTokens, log: log}
}

// Extract returns the best text it can recover from data. It never fails: when
// every path comes back near-empty the result is Placeholder(filename).
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) string {
	kind, mimeType := Detect(filename, data)

	var text string
	switch kind {
	case KindPlainText:
		text = strings.ToValidUTF8(string(data), "\uFFFD")
	default:
		text = e.extractPaged(ctx, filename, mimeType, kind, data)
	}

	if usable(text) {
		return text
	}
	e.log.Warn("extraction degraded, using placeholder", "filename", filename, "bytes", len(data))
	return Placeholder(filename)
}

func (e *Extractor) extractPaged(ctx context.Context, filename, mimeType string, kind Kind, data []byte) string {
	if e.reader != nil && len(data) > 0 {
		text, err := e.reader.ExtractFileText(ctx, filename, mimeType, data, e.maxTokens)
		switch {
		case err != nil:
			e.log.Warn("capability extraction failed", "filename", filename, "error", err)
		case usable(text):
			return strings.TrimSpace(text)
		}
	}

	if kind == KindPDF {
		text, err := pdfextract.ExtractText(data)
		if err != nil {
			e.log.Debug("pdf text layer unreadable", "filename", filename, "error", err)
		} else if usable(text) {
			return strings.TrimSpace(text)
		}
	}

	return Heuristic(data)
}

// Detect classifies a file by extension first, then by content sniffing.
func Detect(filename string, data []byte) (Kind, string) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".markdown", ".text":
		return KindPlainText, "text/plain"
	case ".pdf":
		return KindPDF, "application/pdf"
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return KindPDF, mt.String()
	case strings.HasPrefix(mt.String(), "text/"):
		return KindPlainText, mt.String()
	default:
		return KindBinary, mt.String()
	}
}

var (
	nonPrintable = regexp.MustCompile(`[^\x20-\x7E\n\r\t]`)
	longSpace    = regexp.MustCompile(`\s{3,}`)
)

// Heuristic decodes bytes permissively and keeps the lines that look like
// prose.
func Heuristic(data []byte) string {
	text := strings.ToValidUTF8(string(data), " ")
	text = nonPrintable.ReplaceAllString(text, " ")
	text = longSpace.ReplaceAllString(text, "\n")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) >= MinUsableChars {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func Placeholder(filename string) string {
	return fmt.Sprintf("[Content from %s could not be fully extracted. Text extraction was limited for this file.]", filename)
}

func usable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinUsableChars
}
