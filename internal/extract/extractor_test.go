package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"notewise/internal/pkg/chunker"
)

type fakeReader struct {
	text  string
	err   error
	calls int
}

func (f *fakeReader) ExtractFileText(_ context.Context, _, _ string, _ []byte, _ int) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestExtract_PlainTextVerbatim(t *testing.T) {
	reader := &fakeReader{text: "should not be used"}
	e := New(reader, 100, nil)

	got := e.Extract(context.Background(), "bio.txt", []byte("Mitosis has four phases.\n  indented"))
	assert.Equal(t, "Mitosis has four phases.\n  indented", got)
	assert.Zero(t, reader.calls)
}

func TestExtract_PlainTextMarksInvalidBytes(t *testing.T) {
	e := New(nil, 0, nil)

	got := e.Extract(context.Background(), "menu.txt", []byte("Caf\xe9 au lait, cr\xe8me br\xfbl\xe9e"))
	assert.Equal(t, "Caf\uFFFD au lait, cr\uFFFDme br\uFFFDl\uFFFDe", got)
}

func TestExtract_EmptyTextYieldsSingleChunkPlaceholder(t *testing.T) {
	e := New(nil, 0, nil)

	got := e.Extract(context.Background(), "empty.txt", nil)
	assert.Equal(t, Placeholder("empty.txt"), got)
	assert.Contains(t, got, "empty.txt")
	assert.Len(t, chunker.Default().Split(got), 1)
}

func TestExtract_PDFUsesCapabilityFirst(t *testing.T) {
	reader := &fakeReader{text: "  Photosynthesis converts light energy.  "}
	e := New(reader, 100, nil)

	got := e.Extract(context.Background(), "notes.pdf", []byte("%PDF-1.4 garbage"))
	assert.Equal(t, "Photosynthesis converts light energy.", got)
	assert.Equal(t, 1, reader.calls)
}

func TestExtract_PDFFallsBackToHeuristic(t *testing.T) {
	reader := &fakeReader{err: errors.New("unavailable")}
	e := New(reader, 100, nil)

	data := []byte("%PDF-1.4\x00\x01\x02BT (The cell membrane is selectively permeable) Tj ET\x00\x00\x00\x00short\x07")
	got := e.Extract(context.Background(), "scan.pdf", data)
	assert.Contains(t, got, "The cell membrane is selectively permeable")
	assert.NotContains(t, got, "short")
	assert.Equal(t, 1, reader.calls)
}

func TestExtract_NearEmptyCapabilityOutputIsIgnored(t *testing.T) {
	reader := &fakeReader{text: "  ok "}
	e := New(reader, 100, nil)

	got := e.Extract(context.Background(), "scan.pdf", []byte{0x00, 0x01, 0x02})
	assert.Equal(t, Placeholder("scan.pdf"), got)
}

func TestHeuristic(t *testing.T) {
	data := []byte("header\x00\x00\x00A long enough line of text\r\n\ttiny\n   \n\nAnother readable sentence here.")
	got := Heuristic(data)
	lines := strings.Split(got, "\n")
	assert.Equal(t, []string{"A long enough line of text", "Another readable sentence here."}, lines)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     Kind
	}{
		{name: "txt extension", filename: "a.txt", data: []byte{0x00}, want: KindPlainText},
		{name: "markdown extension", filename: "a.MD", data: nil, want: KindPlainText},
		{name: "pdf extension", filename: "a.pdf", data: nil, want: KindPDF},
		{name: "sniffed pdf", filename: "upload", data: []byte("%PDF-1.7\n"), want: KindPDF},
		{name: "sniffed text", filename: "upload", data: []byte("plain words here"), want: KindPlainText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Detect(tt.filename, tt.data)
			assert.Equal(t, tt.want, got)
		})
	}
}
