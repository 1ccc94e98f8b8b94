package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"notewise/internal/model"
	"notewise/internal/pkg/chunker"
	"notewise/internal/platform/logger"
	"notewise/internal/repository"
)

var allowedExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
	".pdf":      {},
}

type UploadInput struct {
	SessionID string
	SubjectID string
	Filename  string
	Data      []byte
}

// DocumentView is a document with the number of chunks produced so far.
type DocumentView struct {
	model.Document
	ChunkCount int `json:"chunk_count"`
}

type DocumentService struct {
	subjectRepo   *repository.SubjectRepository
	docRepo       *repository.DocumentRepository
	chunkRepo     *repository.ChunkRepository
	files         FileStore
	extractor     TextExtractor
	chunker       *chunker.Chunker
	dispatcher    DocumentDispatcher
	detacher      Detacher
	maxUploadSize int64
	log           *logger.Logger
}

func NewDocumentService(
	subjectRepo *repository.SubjectRepository,
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	files FileStore,
	extractor TextExtractor,
	textChunker *chunker.Chunker,
	dispatcher DocumentDispatcher,
	detacher Detacher,
	maxUploadSize int64,
	log *logger.Logger,
) *DocumentService {
	if textChunker == nil {
		textChunker = chunker.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DocumentService{
		subjectRepo:   subjectRepo,
		docRepo:       docRepo,
		chunkRepo:     chunkRepo,
		files:         files,
		extractor:     extractor,
		chunker:       textChunker,
		dispatcher:    dispatcher,
		detacher:      detacher,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

// Upload stores the file and its document row, then hands processing off.
// The document is returned before any chunk exists.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	filename := filepath.Base(strings.TrimSpace(input.Filename))
	if input.SubjectID == "" || filename == "" || filename == "." || filename == "/" {
		return nil, ErrInvalidInput
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]; !ok {
		return nil, ErrUnsupportedFileType
	}
	if s.maxUploadSize > 0 && int64(len(input.Data)) > s.maxUploadSize {
		return nil, ErrFileTooLarge
	}

	subject, err := resolveSubject(ctx, s.subjectRepo, input.SessionID, input.SubjectID)
	if err != nil {
		return nil, err
	}

	locator, err := s.files.Save(ctx, subject.ID, filename, input.Data)
	if err != nil {
		return nil, err
	}
	doc := &model.Document{
		SubjectID:   subject.ID,
		Filename:    filename,
		StoragePath: locator,
		FileSize:    int64(len(input.Data)),
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	if _, err := s.subjectRepo.RefreshDocumentCount(ctx, subject.ID); err != nil {
		s.log.Warn("refresh document count failed", "subject_id", subject.ID, "error", err)
	}

	job := model.DocumentJob{
		DocumentID:  doc.ID,
		SubjectID:   subject.ID,
		StoragePath: locator,
		Filename:    filename,
	}
	if s.dispatcher != nil && s.detacher != nil {
		s.detacher.Go(ctx, "dispatch document job", func(ctx context.Context) error {
			return s.dispatcher.Dispatch(ctx, job)
		})
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, sessionID, subjectID string) ([]DocumentView, error) {
	subject, err := resolveSubject(ctx, s.subjectRepo, sessionID, subjectID)
	if err != nil {
		return nil, err
	}
	docs, err := s.docRepo.ListBySubjectID(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.chunkRepo.CountByDocument(ctx, subject.ID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentView, 0, len(docs))
	for _, doc := range docs {
		out = append(out, DocumentView{Document: doc, ChunkCount: counts[doc.ID]})
	}
	return out, nil
}

// Process extracts, chunks and stores one document. It returns the number of
// chunks written. A document deleted mid-way yields ErrDocumentNotFound and
// nothing is written.
func (s *DocumentService) Process(ctx context.Context, job model.DocumentJob) (int, error) {
	if job.DocumentID == "" || job.SubjectID == "" || job.StoragePath == "" {
		return 0, ErrInvalidInput
	}
	log := s.log.With("document_id", job.DocumentID, "subject_id", job.SubjectID)

	doc, err := s.docRepo.GetByID(ctx, job.DocumentID)
	if err != nil {
		return 0, err
	}
	if doc == nil {
		log.Warn("document vanished before processing")
		return 0, ErrDocumentNotFound
	}
	if doc.SubjectID != job.SubjectID {
		return 0, fmt.Errorf("%w: document belongs to another subject", ErrInvalidInput)
	}

	data, err := s.files.Read(ctx, job.StoragePath)
	if err != nil {
		return 0, err
	}
	filename := job.Filename
	if filename == "" {
		filename = doc.Filename
	}
	text := s.extractor.Extract(ctx, filename, data)

	segments := s.chunker.Segments(text)
	chunks := make([]model.Chunk, 0, len(segments))
	for _, seg := range segments {
		page := seg.Page
		chunks = append(chunks, model.Chunk{
			Content:    seg.Content,
			PageNumber: &page,
			ChunkIndex: seg.Index,
		})
	}

	err = s.chunkRepo.CreateForDocument(ctx, job.DocumentID, job.SubjectID, chunks)
	switch {
	case errors.Is(err, repository.ErrDocumentVanished):
		log.Warn("document vanished during processing, chunks discarded", "chunks", len(chunks))
		return 0, fmt.Errorf("%w: %w", ErrDocumentNotFound, err)
	case errors.Is(err, repository.ErrSubjectMismatch):
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case err != nil:
		return 0, err
	}

	log.Info("document processed", "chunks", len(chunks), "chars", len(text))
	return len(chunks), nil
}
