package app

import (
	"fmt"
	"strings"
)

const groundingRules = `You answer questions about a student's notes for the subject "%[1]s".
Use ONLY the notes below. Never use outside knowledge, even when you know the answer.
Every line of the notes is labelled L<n>. Each section header names its source file, page and section.

Rules:
- If the notes do not contain the answer, reply with exactly: %[2]s
- Cite every source you used in "citations" as {filename, page} copied from the section headers.
- For each claim add an "evidence" entry with a short verbatim quote, its page, its section number and the line range such as "L12-L15".
- Set "confidence" to High when the notes state the answer directly, Medium when it is inferred from several lines, Low when the support is thin.
`

const chatStyle = `Style: clear and concise. Markdown is allowed.`

const voiceStyle = `Style: you are speaking aloud on a call. Use a warm, natural tone in 2 to 4 sentences.
Do not use markdown, bullet points or headings.
Always mention the source filename in your sentence, for example "According to your notes in biology.pdf".
End with a short, natural follow-up question.`

const studyRules = `You write study questions from a student's notes for the subject "%[1]s".
Use ONLY the notes below. Every line is labelled L<n>; section headers name the source file and page.

Produce exactly 5 multiple-choice questions and exactly 3 short-answer questions.
- Multiple choice: 4 options labelled A, B, C and D, the correct label, a one-sentence explanation, evidence with a verbatim quote and line range, a citation {filename, page} and a confidence of High, Medium or Low.
- Short answer: a model answer, evidence with a verbatim quote and line range, a citation {filename, page} and a confidence.
- Ask only about the content of the notes. Never ask about filenames, dates, file sizes or other document properties.
- If the notes do not hold enough content for a well-grounded question, say so in that item's question text and set its confidence to Low instead of inventing facts.
`

func notFoundRefusal(mode Mode, subjectName string) string {
	if mode == ModeVoiceCall {
		return fmt.Sprintf("That's not in your notes for %s.", subjectName)
	}
	return fmt.Sprintf("Not found in your notes for %s", subjectName)
}

func noNotesMessage(subjectName string) string {
	return fmt.Sprintf("You haven't added any notes to %s yet. Upload a document and ask me again.", subjectName)
}

func answerSystemPrompt(mode Mode, subjectName string, notes AssembledContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, groundingRules, subjectName, notFoundRefusal(mode, subjectName))
	b.WriteString("\n")
	if mode == ModeVoiceCall {
		b.WriteString(voiceStyle)
	} else {
		b.WriteString(chatStyle)
	}
	b.WriteString("\n\nNOTES:\n")
	b.WriteString(notes.Text)
	return b.String()
}

func studySystemPrompt(subjectName string, notes AssembledContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, studyRules, subjectName)
	b.WriteString("\nNOTES:\n")
	b.WriteString(notes.Text)
	return b.String()
}
