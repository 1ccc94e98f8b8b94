package app

import (
	"context"
	"encoding/json"
	"strings"

	"notewise/internal/ai"
	"notewise/internal/model"
	"notewise/internal/platform/logger"
	"notewise/internal/repository"
)

const (
	studyMCQCount         = 5
	studyShortAnswerCount = 3
)

type StudyOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type StudyEvidence struct {
	Quote string `json:"quote"`
	Lines string `json:"lines"`
}

type MCQ struct {
	Question    string           `json:"question"`
	Options     []StudyOption    `json:"options"`
	Correct     string           `json:"correct"`
	Explanation string           `json:"explanation"`
	Evidence    StudyEvidence    `json:"evidence"`
	Citation    model.Citation   `json:"citation"`
	Confidence  model.Confidence `json:"confidence"`
}

type ShortAnswer struct {
	Question   string           `json:"question"`
	Answer     string           `json:"answer"`
	Evidence   StudyEvidence    `json:"evidence"`
	Citation   model.Citation   `json:"citation"`
	Confidence model.Confidence `json:"confidence"`
}

type StudySet struct {
	MCQs         []MCQ         `json:"mcqs"`
	ShortAnswers []ShortAnswer `json:"shortAnswers"`
}

func EmptyStudySet() StudySet {
	return StudySet{MCQs: []MCQ{}, ShortAnswers: []ShortAnswer{}}
}

type StudySetService struct {
	subjectRepo *repository.SubjectRepository
	assembler   *ContextAssembler
	generator   Generator
	temperature float64
	log         *logger.Logger
}

func NewStudySetService(
	subjectRepo *repository.SubjectRepository,
	assembler *ContextAssembler,
	generator Generator,
	temperature float64,
	log *logger.Logger,
) *StudySetService {
	if log == nil {
		log = logger.Nop()
	}
	return &StudySetService{
		subjectRepo: subjectRepo,
		assembler:   assembler,
		generator:   generator,
		temperature: temperature,
		log:         log,
	}
}

// Generate builds a study set grounded in the subject's notes. A subject
// without notes yields an empty set without calling the generator.
func (s *StudySetService) Generate(ctx context.Context, sessionID, subjectID string) (StudySet, error) {
	if strings.TrimSpace(subjectID) == "" {
		return StudySet{}, ErrInvalidInput
	}
	subject, err := resolveSubject(ctx, s.subjectRepo, sessionID, subjectID)
	if err != nil {
		return StudySet{}, err
	}
	notes, err := s.assembler.Assemble(ctx, subject.ID)
	if err != nil {
		return StudySet{}, err
	}
	if notes.Empty() {
		return EmptyStudySet(), nil
	}

	raw, err := s.generator.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.ChatMessage{
			{Role: "system", Content: studySystemPrompt(subject.Name, notes)},
			{Role: model.RoleUser, Content: "Generate the study set now."},
		},
		Temperature: s.temperature,
		Schema:      &ai.JSONSchema{Name: "study_set", Schema: studySetSchema()},
	})
	if err != nil {
		return StudySet{}, upstreamError(err)
	}

	set, ok := DecodeStudySet(raw)
	if !ok {
		s.log.Warn("study set unparseable, returning empty set", "subject_id", subject.ID)
	}
	return set, nil
}

// DecodeStudySet parses generator output. On failure it returns an empty set
// and false. Extra items beyond the fixed battery size are dropped.
func DecodeStudySet(raw string) (StudySet, bool) {
	var set StudySet
	if err := json.Unmarshal([]byte(stripCodeFence(strings.TrimSpace(raw))), &set); err != nil {
		return EmptyStudySet(), false
	}
	if set.MCQs == nil {
		set.MCQs = []MCQ{}
	}
	if set.ShortAnswers == nil {
		set.ShortAnswers = []ShortAnswer{}
	}
	if len(set.MCQs) > studyMCQCount {
		set.MCQs = set.MCQs[:studyMCQCount]
	}
	if len(set.ShortAnswers) > studyShortAnswerCount {
		set.ShortAnswers = set.ShortAnswers[:studyShortAnswerCount]
	}
	for i := range set.MCQs {
		set.MCQs[i].Confidence = normalizeConfidence(string(set.MCQs[i].Confidence))
		set.MCQs[i].Correct = strings.ToUpper(strings.TrimSpace(set.MCQs[i].Correct))
		if set.MCQs[i].Options == nil {
			set.MCQs[i].Options = []StudyOption{}
		}
	}
	for i := range set.ShortAnswers {
		set.ShortAnswers[i].Confidence = normalizeConfidence(string(set.ShortAnswers[i].Confidence))
	}
	return set, true
}
