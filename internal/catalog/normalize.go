package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"quiz-player/internal/domain"
)

// rawDocument mirrors the quiz file layout: {config, questions}.
type rawDocument struct {
	Config    *domain.QuizConfig `json:"config"`
	Questions *[]rawQuestion     `json:"questions"`
}

// rawQuestion accepts both question shapes:
//
//	{choices: [...], correctAnswer: "..."}  value based
//	{options: [...], answer: 2}             index based
type rawQuestion struct {
	Question      string            `json:"question"`
	ImageURL      string            `json:"imageUrl"`
	Type          string            `json:"type"`
	Choices       []json.RawMessage `json:"choices"`
	CorrectAnswer json.RawMessage   `json:"correctAnswer"`
	Options       []json.RawMessage `json:"options"`
	Answer        *int              `json:"answer"`
	Explanation   string            `json:"explanation"`
}

// ParseQuiz decodes a quiz document and normalizes every question.
// Malformed questions never fail the quiz; they are logged and degraded to informational.
func ParseQuiz(id string, data []byte, log *zap.Logger) (domain.Quiz, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Quiz{}, fmt.Errorf("parse quiz %s: %w", id, err)
	}
	if doc.Questions == nil {
		return domain.Quiz{}, fmt.Errorf("parse quiz %s: %w", id, domain.ErrInvalidQuiz)
	}

	quiz := domain.Quiz{ID: id}
	if doc.Config != nil {
		quiz.Config = *doc.Config
	}
	if quiz.Config.Title == "" {
		quiz.Config.Title = id
	}

	quiz.Questions = make([]domain.Question, 0, len(*doc.Questions))
	for i, raw := range *doc.Questions {
		quiz.Questions = append(quiz.Questions, normalizeQuestion(raw, log.With(zap.String("quiz", id), zap.Int("question", i))))
	}
	if quiz.Config.QuestionCount == 0 {
		quiz.Config.QuestionCount = len(quiz.Questions)
	}
	return quiz, nil
}

func normalizeQuestion(raw rawQuestion, log *zap.Logger) domain.Question {
	q := domain.Question{
		Prompt:      raw.Question,
		ImageURL:    raw.ImageURL,
		Explanation: raw.Explanation,
		Kind:        domain.KindInformational,
	}

	switch {
	case len(raw.Choices) > 0:
		options := texts(raw.Choices)
		correct := text(raw.CorrectAnswer)
		if !contains(options, correct) {
			log.Warn("correct answer not among choices, treating as informational", zap.String("correctAnswer", correct))
			q.Correct = correct
			return q
		}
		q.Kind = domain.KindChoice
		q.Options = options
		q.Correct = correct
	case len(raw.Options) > 0:
		options := texts(raw.Options)
		if raw.Answer == nil || *raw.Answer < 0 || *raw.Answer >= len(options) {
			log.Warn("answer index missing or out of range, treating as informational", zap.Int("options", len(options)))
			return q
		}
		q.Kind = domain.KindChoice
		q.Options = options
		q.Correct = options[*raw.Answer]
	default:
		// Free-response question; correctAnswer (if any) is only revealed.
		q.Correct = text(raw.CorrectAnswer)
		if raw.Answer != nil || strings.EqualFold(raw.Type, string(domain.KindChoice)) {
			log.Warn("choice question without options, treating as informational")
		}
	}
	return q
}

// text renders a scalar JSON value as display text; strings are unquoted.
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func texts(raws []json.RawMessage) []string {
	out := make([]string, 0, len(raws))
	for _, r := range raws {
		out = append(out, text(r))
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
