package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a subject's conversation log. Citations, evidence
// and confidence are only ever set on assistant turns.
type ChatMessage struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	SubjectID  string         `gorm:"size:36;not null;index" json:"subject_id"`
	Subject    *Subject       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Role       string         `gorm:"size:16;not null" json:"role"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Citations  datatypes.JSON `json:"citations,omitempty"`
	Evidence   datatypes.JSON `json:"evidence,omitempty"`
	Confidence string         `gorm:"size:8" json:"confidence,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func NewUserMessage(subjectID, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func NewAssistantMessage(subjectID, content string, citations []Citation, evidence []Evidence, confidence Confidence) ChatMessage {
	msg := ChatMessage{
		ID:         uuid.NewString(),
		SubjectID:  subjectID,
		Role:       RoleAssistant,
		Content:    content,
		Confidence: string(confidence),
		CreatedAt:  time.Now(),
	}
	msg.SetCitations(citations)
	msg.SetEvidence(evidence)
	return msg
}

// CitationList returns the parsed citations; empty on parse error.
func (m *ChatMessage) CitationList() []Citation {
	var out []Citation
	if len(m.Citations) == 0 {
		return out
	}
	_ = json.Unmarshal(m.Citations, &out)
	return out
}

// EvidenceList returns the parsed evidence; empty on parse error.
func (m *ChatMessage) EvidenceList() []Evidence {
	var out []Evidence
	if len(m.Evidence) == 0 {
		return out
	}
	_ = json.Unmarshal(m.Evidence, &out)
	return out
}

func (m *ChatMessage) SetCitations(citations []Citation) {
	if citations == nil {
		citations = []Citation{}
	}
	b, _ := json.Marshal(citations)
	m.Citations = datatypes.JSON(b)
}

func (m *ChatMessage) SetEvidence(evidence []Evidence) {
	if evidence == nil {
		evidence = []Evidence{}
	}
	b, _ := json.Marshal(evidence)
	m.Evidence = datatypes.JSON(b)
}
