package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"notewise/internal/model"
	"notewise/internal/repository"
)

const (
	sectionSeparator = "\n\n---\n\n"
	unknownFilename  = "unknown"
	unknownPage      = "N/A"
)

// AssembledContext is the line-numbered rendering of every chunk of a subject.
type AssembledContext struct {
	Text     string
	Sections int
	Lines    int
}

func (c AssembledContext) Empty() bool {
	return c.Sections == 0
}

type ContextAssembler struct {
	chunkRepo *repository.ChunkRepository
	docRepo   *repository.DocumentRepository
}

func NewContextAssembler(chunkRepo *repository.ChunkRepository, docRepo *repository.DocumentRepository) *ContextAssembler {
	return &ContextAssembler{chunkRepo: chunkRepo, docRepo: docRepo}
}

// Assemble loads all chunks of the subject in reconstruction order and renders
// them. A subject without chunks yields an empty context.
func (a *ContextAssembler) Assemble(ctx context.Context, subjectID string) (AssembledContext, error) {
	chunks, err := a.chunkRepo.ListBySubjectID(ctx, subjectID)
	if err != nil {
		return AssembledContext{}, err
	}
	if len(chunks) == 0 {
		return AssembledContext{}, nil
	}

	ids := make([]string, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.DocumentID]; ok {
			continue
		}
		seen[c.DocumentID] = struct{}{}
		ids = append(ids, c.DocumentID)
	}
	filenames, err := a.docRepo.FilenamesByIDs(ctx, ids)
	if err != nil {
		return AssembledContext{}, err
	}
	return RenderContext(chunks, filenames), nil
}

// RenderContext labels every physical line with L<n>, where n keeps counting
// across section boundaries.
func RenderContext(chunks []model.Chunk, filenames map[string]string) AssembledContext {
	var b strings.Builder
	line := 0
	for i, c := range chunks {
		if i > 0 {
			b.WriteString(sectionSeparator)
		}
		filename, ok := filenames[c.DocumentID]
		if !ok || filename == "" {
			filename = unknownFilename
		}
		fmt.Fprintf(&b, "[Source: %s, Page %s, Section %d]\n", filename, pageLabel(c.PageNumber), i+1)

		for j, text := range strings.Split(c.Content, "\n") {
			line++
			if j > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("L")
			b.WriteString(strconv.Itoa(line))
			b.WriteString(": ")
			b.WriteString(text)
		}
	}
	return AssembledContext{Text: b.String(), Sections: len(chunks), Lines: line}
}

func pageLabel(page *int) string {
	if page == nil {
		return unknownPage
	}
	return strconv.Itoa(*page)
}
