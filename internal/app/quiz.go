package app

import (
	"fmt"
	"sort"
	"strings"
)

type QuizQuestion struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Quiz is the self check-in question bank. It is not a diagnostic instrument.
type Quiz struct {
	questions []QuizQuestion
	byID      map[int]QuizQuestion
}

func NewQuiz() *Quiz {
	questions := []QuizQuestion{
		{ID: 1, Question: "How often do you feel overwhelmed with daily tasks?", Options: []string{"Never", "Sometimes", "Often", "Always"}},
		{ID: 2, Question: "How well do you sleep at night?", Options: []string{"Very well", "Okay", "Not well", "Barely sleep"}},
		{ID: 3, Question: "How often do you feel anxious or worried?", Options: []string{"Rarely", "Sometimes", "Frequently", "All the time"}},
		{ID: 4, Question: "Do you find joy in activities you used to enjoy?", Options: []string{"Yes", "Sometimes", "Rarely", "Not at all"}},
		{ID: 5, Question: "How often do you feel fatigued even after rest?", Options: []string{"Never", "Sometimes", "Often", "Always"}},
		{ID: 6, Question: "Do you talk to someone about your feelings?", Options: []string{"Regularly", "Sometimes", "Rarely", "Never"}},
		{ID: 7, Question: "How often do you experience mood swings?", Options: []string{"Never", "Occasionally", "Often", "Very often"}},
		{ID: 8, Question: "How would you rate your self-esteem?", Options: []string{"High", "Moderate", "Low", "Very low"}},
		{ID: 9, Question: "Do you find it difficult to concentrate?", Options: []string{"No", "Sometimes", "Often", "Always"}},
		{ID: 10, Question: "Do you feel supported by people around you?", Options: []string{"Yes", "Somewhat", "Not really", "Not at all"}},
	}
	byID := make(map[int]QuizQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &Quiz{questions: questions, byID: byID}
}

func (q *Quiz) Questions() []QuizQuestion {
	out := make([]QuizQuestion, len(q.questions))
	copy(out, q.questions)
	return out
}

// Validate checks every answer against the bank. A partial answer set is fine.
func (q *Quiz) Validate(answers map[int]string) error {
	for id, answer := range answers {
		question, ok := q.byID[id]
		if !ok {
			return validationError("unknown quiz question %d", id)
		}
		if !contains(question.Options, answer) {
			return validationError("invalid answer for quiz question %d", id)
		}
	}
	return nil
}

// Summary renders answers as prompt context, ordered by question id.
func (q *Quiz) Summary(answers map[int]string) string {
	if len(answers) == 0 {
		return ""
	}
	ids := make([]int, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString("The user completed a self check-in before this conversation. Their answers:\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "- %s %s\n", q.byID[id].Question, answers[id])
	}
	return strings.TrimRight(b.String(), "\n")
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
