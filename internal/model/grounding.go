package model

import (
	"encoding/json"
	"fmt"
)

// Citation points an answer at a source file. Page numbers are estimated from
// character offsets and are approximate.
type Citation struct {
	Filename string `json:"filename"`
	Page     string `json:"page"`
}

// Evidence ties an answer to a verbatim quote and an absolute line range of the
// assembled context, e.g. "L12-L15".
type Evidence struct {
	Quote   string `json:"quote"`
	Page    string `json:"page"`
	Section string `json:"section"`
	Lines   string `json:"lines"`
}

// UnmarshalJSON accepts the page as a string or a bare number.
func (c *Citation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Filename string          `json:"filename"`
		Page     json.RawMessage `json:"page"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	page, err := looseString(raw.Page)
	if err != nil {
		return fmt.Errorf("citation page: %w", err)
	}
	*c = Citation{Filename: raw.Filename, Page: page}
	return nil
}

// UnmarshalJSON accepts page, section and lines as strings or bare numbers.
func (e *Evidence) UnmarshalJSON(data []byte) error {
	var raw struct {
		Quote   string          `json:"quote"`
		Page    json.RawMessage `json:"page"`
		Section json.RawMessage `json:"section"`
		Lines   json.RawMessage `json:"lines"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Evidence{Quote: raw.Quote}
	var err error
	if out.Page, err = looseString(raw.Page); err != nil {
		return fmt.Errorf("evidence page: %w", err)
	}
	if out.Section, err = looseString(raw.Section); err != nil {
		return fmt.Errorf("evidence section: %w", err)
	}
	if out.Lines, err = looseString(raw.Lines); err != nil {
		return fmt.Errorf("evidence lines: %w", err)
	}
	*e = out
	return nil
}

// looseString decodes a JSON string, number or null into a string.
func looseString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}
