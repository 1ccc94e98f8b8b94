package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/ai"
	"notewise/internal/model"
)

func studyPayload(mcqs, shorts int) string {
	var b strings.Builder
	b.WriteString(`{"mcqs":[`)
	for i := 0; i < mcqs; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"question":"Q%d","options":[{"label":"A","text":"one"},{"label":"B","text":"two"},{"label":"C","text":"three"},{"label":"D","text":"four"}],`+
			`"correct":"d","explanation":"stated","evidence":{"quote":"four phases","lines":"L1-L1"},"citation":{"filename":"bio.txt","page":"1"},"confidence":"High"}`, i)
	}
	b.WriteString(`],"shortAnswers":[`)
	for i := 0; i < shorts; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"question":"S%d","answer":"four","evidence":{"quote":"four phases","lines":"L1-L1"},"citation":{"filename":"bio.txt","page":"1"},"confidence":"medium"}`, i)
	}
	b.WriteString(`]}`)
	return b.String()
}

func TestStudySet_EmptySubject(t *testing.T) {
	env := newTestEnv(t)
	empty := env.subject(t, "Empty")
	gen := &fakeGenerator{}
	svc := NewStudySetService(env.subjects, env.assembler, gen, 0.4, nil)

	set, err := svc.Generate(context.Background(), "", empty.ID)
	require.NoError(t, err)
	assert.Zero(t, gen.calls())

	body, err := json.Marshal(set)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mcqs":[],"shortAnswers":[]}`, string(body))
}

func TestStudySet_Generate(t *testing.T) {
	env := newTestEnv(t)
	bio := env.subject(t, "Biology")
	env.document(t, bio.ID, "bio.txt", "Mitosis has four phases.")
	gen := &fakeGenerator{response: studyPayload(5, 3)}
	svc := NewStudySetService(env.subjects, env.assembler, gen, 0.4, nil)

	set, err := svc.Generate(context.Background(), "session-1", bio.ID)
	require.NoError(t, err)
	require.Len(t, set.MCQs, 5)
	require.Len(t, set.ShortAnswers, 3)
	assert.Equal(t, "D", set.MCQs[0].Correct)
	assert.Len(t, set.MCQs[0].Options, 4)
	assert.Equal(t, "bio.txt", set.MCQs[0].Citation.Filename)
	assert.Equal(t, "Medium", string(set.ShortAnswers[2].Confidence))

	req := gen.requests[0]
	assert.InDelta(t, 0.4, req.Temperature, 1e-9)
	assert.Equal(t, "study_set", req.Schema.Name)
	assert.Contains(t, req.Messages[0].Content, "exactly 5 multiple-choice")
	assert.Contains(t, req.Messages[0].Content, "L1: Mitosis has four phases.")
}

func TestStudySet_TruncatesExtraItems(t *testing.T) {
	set, ok := DecodeStudySet(studyPayload(7, 4))
	require.True(t, ok)
	assert.Len(t, set.MCQs, 5)
	assert.Len(t, set.ShortAnswers, 3)
}

func TestStudySet_NumericCitationPage(t *testing.T) {
	raw := strings.ReplaceAll(studyPayload(5, 3), `"page":"1"`, `"page":1`)

	set, ok := DecodeStudySet(raw)
	require.True(t, ok)
	require.Len(t, set.MCQs, 5)
	require.Len(t, set.ShortAnswers, 3)
	assert.Equal(t, model.Citation{Filename: "bio.txt", Page: "1"}, set.MCQs[0].Citation)
	assert.Equal(t, model.Citation{Filename: "bio.txt", Page: "1"}, set.ShortAnswers[2].Citation)
}

func TestStudySet_ParseFailureReturnsEmptySet(t *testing.T) {
	env := newTestEnv(t)
	bio := env.subject(t, "Biology")
	env.document(t, bio.ID, "bio.txt", "Mitosis has four phases.")
	svc := NewStudySetService(env.subjects, env.assembler, &fakeGenerator{response: "Sorry, I can't."}, 0.4, nil)

	set, err := svc.Generate(context.Background(), "", bio.ID)
	require.NoError(t, err)
	assert.Equal(t, EmptyStudySet(), set)
}

func TestStudySet_Errors(t *testing.T) {
	env := newTestEnv(t)
	bio := env.subject(t, "Biology")
	env.document(t, bio.ID, "bio.txt", "Mitosis has four phases.")

	svc := NewStudySetService(env.subjects, env.assembler, &fakeGenerator{}, 0.4, nil)
	_, err := svc.Generate(context.Background(), "", "missing")
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	svc = NewStudySetService(env.subjects, env.assembler,
		&fakeGenerator{err: &ai.UpstreamError{StatusCode: 429, Kind: ai.KindRateLimited}}, 0.4, nil)
	_, err = svc.Generate(context.Background(), "", bio.ID)
	assert.ErrorIs(t, err, ErrUpstreamRateLimited)
}
