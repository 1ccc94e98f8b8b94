package app

import "sort"

func stringField() map[string]any {
	return map[string]any{"type": "string"}
}

func strictObject(properties map[string]any) map[string]any {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	required := make([]any, len(names))
	for i, name := range names {
		required[i] = name
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
		"required":             required,
	}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func confidenceField() map[string]any {
	return map[string]any{"type": "string", "enum": []any{"High", "Medium", "Low"}}
}

func citationSchema() map[string]any {
	return strictObject(map[string]any{
		"filename": stringField(),
		"page":     stringField(),
	})
}

func answerSchema() map[string]any {
	return strictObject(map[string]any{
		"content":   stringField(),
		"citations": arrayOf(citationSchema()),
		"evidence": arrayOf(strictObject(map[string]any{
			"quote":   stringField(),
			"page":    stringField(),
			"section": stringField(),
			"lines":   stringField(),
		})),
		"confidence": confidenceField(),
	})
}

func studySetSchema() map[string]any {
	evidence := strictObject(map[string]any{
		"quote": stringField(),
		"lines": stringField(),
	})
	mcq := strictObject(map[string]any{
		"question": stringField(),
		"options": arrayOf(strictObject(map[string]any{
			"label": map[string]any{"type": "string", "enum": []any{"A", "B", "C", "D"}},
			"text":  stringField(),
		})),
		"correct":     map[string]any{"type": "string", "enum": []any{"A", "B", "C", "D"}},
		"explanation": stringField(),
		"evidence":    evidence,
		"citation":    citationSchema(),
		"confidence":  confidenceField(),
	})
	shortAnswer := strictObject(map[string]any{
		"question":   stringField(),
		"answer":     stringField(),
		"evidence":   evidence,
		"citation":   citationSchema(),
		"confidence": confidenceField(),
	})
	return strictObject(map[string]any{
		"mcqs":         arrayOf(mcq),
		"shortAnswers": arrayOf(shortAnswer),
	})
}
