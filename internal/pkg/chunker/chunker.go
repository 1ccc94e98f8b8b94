// Package chunker splits extracted document text into overlapping fixed-size
// windows and estimates a page number for each window.
package chunker

import (
	"errors"
	"math"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200

	// charsPerPage is the assumed density behind page estimation.
	charsPerPage = 3000
)

// ErrInvalidWindow is returned for a size/overlap pair that would never
// advance the window.
var ErrInvalidWindow = errors.New("chunk overlap must be non-negative and smaller than chunk size")

// Segment is one window of text. Page is an estimate, not a true page boundary.
type Segment struct {
	Index   int
	Content string
	Page    int
}

type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, ErrInvalidWindow
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default uses 1000-character windows with 200 characters of overlap.
func Default() *Chunker {
	return &Chunker{size: DefaultSize, overlap: DefaultOverlap}
}

func (c *Chunker) Step() int {
	return c.size - c.overlap
}

// Split slides a window of size runes over text, advancing by size-overlap,
// until the window start passes the end of the text. Empty text yields no
// chunks; any other text yields at least one.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/c.Step()+1)
	for start := 0; start < len(runes); start += c.Step() {
		end := min(start+c.size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// Segments splits text and attaches an estimated page to every chunk.
func (c *Chunker) Segments(text string) []Segment {
	parts := c.Split(text)
	textLen := len([]rune(text))
	out := make([]Segment, len(parts))
	for i, part := range parts {
		out[i] = Segment{
			Index:   i,
			Content: part,
			Page:    EstimatePage(i, c.Step(), textLen),
		}
	}
	return out
}

// EstimatePages is max(1, ceil(textLen / 3000)).
func EstimatePages(textLen int) int {
	return max(1, int(math.Ceil(float64(textLen)/charsPerPage)))
}

// EstimatePage places chunk index linearly across the estimated page count:
// max(1, ceil((index*step / textLen) * pages)).
func EstimatePage(index, step, textLen int) int {
	if textLen <= 0 {
		return 1
	}
	ratio := float64(index*step) / float64(textLen)
	return max(1, int(math.Ceil(ratio*float64(EstimatePages(textLen)))))
}
