package prompts

import (
	"bytes"
	"embed"
	"errors"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

// Templates holds the built-in prompt templates.
//
//go:embed templates/*.tmpl
var Templates embed.FS

const (
	practiceQuestionFile = "templates/practice_question.tmpl"
	shortAnswerFile      = "templates/short_answer.tmpl"

	maxExtractedRunes = 20000
	maxAnswerRunes    = 2000
)

var (
	studentAnswerRegex = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	extractedTextRegex = regexp.MustCompile(`(?i)</?\s*extracted-text\b[^>]*>`)
)

var (
	loadOnce                 sync.Once
	loadErr                  error
	practiceQuestionTemplate *template.Template
	shortAnswerTemplate      *template.Template
)

// PracticeQuestionData holds template data for practice question generation.
type PracticeQuestionData struct {
	ExtractedText  string
	TeacherComment string
	Bio            string
}

// ShortAnswerData holds template data for short answer grading.
type ShortAnswerData struct {
	QuestionText  string
	CorrectAnswer string
	StudentAnswer string
}

// Load loads prompt templates from fsys, normally Templates.
// It uses sync.Once to ensure templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		practiceQuestionTemplate, loadErr = parse(fsys, practiceQuestionFile)
		if loadErr != nil {
			return
		}
		shortAnswerTemplate, loadErr = parse(fsys, shortAnswerFile)
	})
	return loadErr
}

func parse(fsys fs.FS, name string) (*template.Template, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.New("failed to read prompt file " + name + ": " + err.Error())
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, errors.New("failed to parse prompt template " + name + ": " + err.Error())
	}
	return tmpl, nil
}

// BuildPracticeQuestionPrompt builds the prompt asking for one practice
// question in the single-question JSON shape.
func BuildPracticeQuestionPrompt(extractedText, teacherComment, bio string) (string, error) {
	if practiceQuestionTemplate == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	data := PracticeQuestionData{
		ExtractedText:  truncate(extractedTextRegex.ReplaceAllString(strings.TrimSpace(extractedText), ""), maxExtractedRunes),
		TeacherComment: strings.TrimSpace(teacherComment),
		Bio:            strings.TrimSpace(bio),
	}
	var buf bytes.Buffer
	if err := practiceQuestionTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildShortAnswerPrompt builds the prompt asking for a one-word verdict on
// a free-text answer.
func BuildShortAnswerPrompt(questionText, studentAnswer, correctAnswer string) (string, error) {
	if shortAnswerTemplate == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	data := ShortAnswerData{
		QuestionText:  questionText,
		CorrectAnswer: correctAnswer,
		StudentAnswer: sanitizeAnswer(studentAnswer),
	}
	var buf bytes.Buffer
	if err := shortAnswerTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeAnswer(answer string) string {
	answer = studentAnswerRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "[No answer provided]"
	}
	return truncate(answer, maxAnswerRunes)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "\n\n[truncated due to length]"
}
