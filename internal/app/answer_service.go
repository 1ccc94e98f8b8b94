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

type Mode string

const (
	ModeChat      Mode = "chat"
	ModeVoiceCall Mode = "voice_call"
)

// ParseMode accepts the wire value of a mode; empty means chat.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.TrimSpace(raw)) {
	case "", ModeChat:
		return ModeChat, nil
	case ModeVoiceCall:
		return ModeVoiceCall, nil
	default:
		return "", ErrInvalidInput
	}
}

type Temperatures struct {
	Chat  float64
	Voice float64
	Study float64
}

func (t Temperatures) forMode(mode Mode) float64 {
	if mode == ModeVoiceCall {
		return t.Voice
	}
	return t.Chat
}

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AskInput struct {
	SessionID string
	SubjectID string
	Question  string
	History   []Turn
	Mode      Mode
}

type Answer struct {
	Content    string           `json:"content"`
	Citations  []model.Citation `json:"citations"`
	Evidence   []model.Evidence `json:"evidence"`
	Confidence model.Confidence `json:"confidence"`
}

// GenerationResult is either a StructuredResult or a RawTextResult.
type GenerationResult interface {
	answer() Answer
}

type StructuredResult struct {
	Answer Answer
}

func (r StructuredResult) answer() Answer { return r.Answer }

// RawTextResult is model output that did not match the answer schema.
type RawTextResult struct {
	Text string
}

func (r RawTextResult) answer() Answer {
	return Answer{
		Content:    r.Text,
		Citations:  []model.Citation{},
		Evidence:   []model.Evidence{},
		Confidence: model.ConfidenceMedium,
	}
}

type AnswerService struct {
	subjectRepo  *repository.SubjectRepository
	assembler    *ContextAssembler
	generator    Generator
	chatLog      ChatLog
	historyCache HistoryCache
	detacher     Detacher
	temps        Temperatures
	maxHistory   int
	log          *logger.Logger
}

func NewAnswerService(
	subjectRepo *repository.SubjectRepository,
	assembler *ContextAssembler,
	generator Generator,
	chatLog ChatLog,
	historyCache HistoryCache,
	detacher Detacher,
	temps Temperatures,
	maxHistory int,
	log *logger.Logger,
) *AnswerService {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AnswerService{
		subjectRepo:  subjectRepo,
		assembler:    assembler,
		generator:    generator,
		chatLog:      chatLog,
		historyCache: historyCache,
		detacher:     detacher,
		temps:        temps,
		maxHistory:   maxHistory,
		log:          log,
	}
}

func (s *AnswerService) Ask(ctx context.Context, input AskInput) (*Answer, error) {
	question := strings.TrimSpace(input.Question)
	if strings.TrimSpace(input.SubjectID) == "" || question == "" {
		return nil, ErrInvalidInput
	}
	mode := input.Mode
	if mode == "" {
		mode = ModeChat
	}

	subject, err := resolveSubject(ctx, s.subjectRepo, input.SessionID, input.SubjectID)
	if err != nil {
		return nil, err
	}

	notes, err := s.assembler.Assemble(ctx, subject.ID)
	if err != nil {
		return nil, err
	}

	var result Answer
	if notes.Empty() {
		result = Answer{
			Content:    noNotesMessage(subject.Name),
			Citations:  []model.Citation{},
			Evidence:   []model.Evidence{},
			Confidence: model.ConfidenceLow,
		}
	} else {
		raw, err := s.generator.Complete(ctx, ai.CompletionRequest{
			Messages:    s.buildMessages(mode, subject.Name, notes, input.History, question),
			Temperature: s.temps.forMode(mode),
			Schema:      &ai.JSONSchema{Name: "grounded_answer", Schema: answerSchema()},
		})
		if err != nil {
			return nil, upstreamError(err)
		}
		outcome := DecodeAnswer(raw)
		if _, ok := outcome.(RawTextResult); ok {
			s.log.Warn("structured answer unparseable, using raw text", "subject_id", subject.ID, "mode", mode)
		}
		result = outcome.answer()
	}

	s.record(ctx, subject.ID, question, result)
	return &result, nil
}

func (s *AnswerService) buildMessages(mode Mode, subjectName string, notes AssembledContext, history []Turn, question string) []ai.ChatMessage {
	history = TrimHistory(history, s.maxHistory)
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: answerSystemPrompt(mode, subjectName, notes)})
	for _, turn := range history {
		messages = append(messages, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: model.RoleUser, Content: question})
	return messages
}

// record appends both turns to the log without holding up the response.
// Failures are logged by the detacher and never reach the caller.
func (s *AnswerService) record(ctx context.Context, subjectID, question string, answer Answer) {
	if s.chatLog == nil || s.detacher == nil {
		return
	}
	if s.historyCache != nil {
		if err := s.historyCache.Invalidate(ctx, subjectID); err != nil {
			s.log.Warn("invalidate history cache failed", "subject_id", subjectID, "error", err)
		}
	}
	userTurn := model.NewUserMessage(subjectID, question)
	assistantTurn := model.NewAssistantMessage(subjectID, answer.Content, answer.Citations, answer.Evidence, answer.Confidence)
	s.detacher.Go(ctx, "append user turn", func(ctx context.Context) error {
		return s.chatLog.Append(ctx, userTurn)
	})
	s.detacher.Go(ctx, "append assistant turn", func(ctx context.Context) error {
		return s.chatLog.Append(ctx, assistantTurn)
	})
}

// TrimHistory keeps the last limit well-formed turns.
func TrimHistory(history []Turn, limit int) []Turn {
	out := make([]Turn, 0, len(history))
	for _, turn := range history {
		role := strings.TrimSpace(turn.Role)
		content := strings.TrimSpace(turn.Content)
		if content == "" || (role != model.RoleUser && role != model.RoleAssistant) {
			continue
		}
		out = append(out, Turn{Role: role, Content: content})
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// DecodeAnswer strictly decodes a structured answer. Anything that is not a
// JSON object with non-empty content becomes a RawTextResult.
func DecodeAnswer(raw string) GenerationResult {
	text := strings.TrimSpace(raw)
	var payload struct {
		Content    *string          `json:"content"`
		Citations  []model.Citation `json:"citations"`
		Evidence   []model.Evidence `json:"evidence"`
		Confidence string           `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &payload); err != nil ||
		payload.Content == nil || strings.TrimSpace(*payload.Content) == "" {
		if text == "" {
			text = "The model returned an empty response."
		}
		return RawTextResult{Text: text}
	}

	answer := Answer{
		Content:    strings.TrimSpace(*payload.Content),
		Citations:  payload.Citations,
		Evidence:   payload.Evidence,
		Confidence: normalizeConfidence(payload.Confidence),
	}
	if answer.Citations == nil {
		answer.Citations = []model.Citation{}
	}
	if answer.Evidence == nil {
		answer.Evidence = []model.Evidence{}
	}
	return StructuredResult{Answer: answer}
}

func normalizeConfidence(raw string) model.Confidence {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return model.ConfidenceMedium
	}
	c := model.Confidence(strings.ToUpper(raw[:1]) + raw[1:])
	if !c.Valid() {
		return model.ConfidenceMedium
	}
	return c
}

// stripCodeFence removes a surrounding ```json fence some providers add when
// structured output is off.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func resolveSubject(ctx context.Context, repo *repository.SubjectRepository, sessionID, subjectID string) (*model.Subject, error) {
	var (
		subject *model.Subject
		err     error
	)
	if sessionID == "" {
		subject, err = repo.GetByID(ctx, subjectID)
	} else {
		subject, err = repo.GetByIDAndSessionID(ctx, subjectID, sessionID)
	}
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, ErrSubjectNotFound
	}
	return subject, nil
}
