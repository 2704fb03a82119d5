package practice

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// EmptyQuestionsJSON is the payload stored when no question could be generated.
const EmptyQuestionsJSON = `{"test":{"question":null}}`

var questionKeyRegex = regexp.MustCompile(`(?i)"question"`)

// Current shape: {"test": {"id", "title", "question": {...}}}.
type canonicalEnvelope struct {
	Test *struct {
		ID       string    `json:"id"`
		Title    string    `json:"title"`
		Question *Question `json:"question"`
	} `json:"test"`
}

// Older shape: {"test": {"id", "title", "questions": [...]}}.
type legacyEnvelope struct {
	Test *struct {
		ID        string     `json:"id"`
		Title     string     `json:"title"`
		Questions []Question `json:"questions"`
	} `json:"test"`
}

// Normalize parses a raw practice-set payload into a TestPackage.
//
// It returns nil for an empty payload or malformed JSON. A payload that
// mentions a "question" key is taken as the current single-question shape,
// even when the question itself is null. Anything else is read as the older
// multi-question shape, keeping only the first question. Markdown code fences
// around the JSON are ignored.
func Normalize(raw string) *TestPackage {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	payload := stripCodeFence(raw)

	var canonical canonicalEnvelope
	if err := json.Unmarshal([]byte(payload), &canonical); err != nil {
		slog.Debug("practice payload is not valid JSON", "error", err)
		return nil
	}
	if questionKeyRegex.MatchString(payload) {
		pkg := &TestPackage{}
		if canonical.Test != nil {
			pkg.ID = canonical.Test.ID
			pkg.Title = canonical.Test.Title
			pkg.Question = canonical.Test.Question
		}
		return pkg
	}

	var legacy legacyEnvelope
	if err := json.Unmarshal([]byte(payload), &legacy); err != nil {
		slog.Debug("practice payload does not match the legacy shape", "error", err)
		return nil
	}
	pkg := &TestPackage{}
	if legacy.Test != nil {
		pkg.ID = legacy.Test.ID
		pkg.Title = legacy.Test.Title
		if len(legacy.Test.Questions) > 0 {
			first := legacy.Test.Questions[0]
			pkg.Question = &first
		}
	}
	return pkg
}

// stripCodeFence drops a leading ``` line and everything from the last ``` on.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return ""
	}
	s = s[nl+1:]
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
