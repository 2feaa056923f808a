package domain

import (
	"encoding/json"
	"fmt"
)

// Unanswered marks a question with no selected option in an answer record.
const Unanswered = -1

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID           string   `json:"id,omitempty" yaml:"id,omitempty"`
	Prompt       string   `json:"question" yaml:"question"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correct_answer_index" yaml:"correct_answer_index"`
}

// UnmarshalJSON accepts the question id as a string or a number; the
// text-sheet converter numbers questions.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	var raw struct {
		plain
		ID json.RawMessage `json:"id,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Question(raw.plain)
	q.ID = ""
	if len(raw.ID) == 0 || string(raw.ID) == "null" {
		return nil
	}
	var id string
	if err := json.Unmarshal(raw.ID, &id); err == nil {
		q.ID = id
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.ID, &n); err != nil {
		return fmt.Errorf("question id %s: %w", raw.ID, err)
	}
	q.ID = n.String()
	return nil
}

// CorrectText returns the text of the correct option.
func (q Question) CorrectText() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// QuestionBank is the raw document a quiz is drawn from.
type QuestionBank struct {
	ID               string     `json:"id,omitempty" yaml:"id,omitempty"`
	Title            string     `json:"quiz_title" yaml:"quiz_title"`
	TotalQuestions   int        `json:"total_questions" yaml:"total_questions"`
	PassingScore     int        `json:"passing_score" yaml:"passing_score"`
	TimeLimitSeconds int        `json:"time_limit_seconds" yaml:"time_limit_seconds"`
	Questions        []Question `json:"questions" yaml:"questions"`
}

// SelectedQuiz is the randomized subset used by one session. It is built
// once by the loader and only handed out as copies afterwards.
type SelectedQuiz struct {
	title            string
	passingScore     int
	timeLimitSeconds int
	questions        []Question
}

// NewSelectedQuiz copies questions so later changes to the slice do not leak in.
func NewSelectedQuiz(title string, passingScore, timeLimitSeconds int, questions []Question) SelectedQuiz {
	qs := make([]Question, len(questions))
	for i, q := range questions {
		qs[i] = cloneQuestion(q)
	}
	return SelectedQuiz{
		title:            title,
		passingScore:     passingScore,
		timeLimitSeconds: timeLimitSeconds,
		questions:        qs,
	}
}

func (q SelectedQuiz) Title() string         { return q.title }
func (q SelectedQuiz) PassingScore() int     { return q.passingScore }
func (q SelectedQuiz) TimeLimitSeconds() int { return q.timeLimitSeconds }
func (q SelectedQuiz) TotalQuestions() int   { return len(q.questions) }

// Question returns a copy of the i-th question.
func (q SelectedQuiz) Question(i int) (Question, bool) {
	if i < 0 || i >= len(q.questions) {
		return Question{}, false
	}
	return cloneQuestion(q.questions[i]), true
}

// Questions returns a copy of all selected questions in order.
func (q SelectedQuiz) Questions() []Question {
	out := make([]Question, len(q.questions))
	for i, question := range q.questions {
		out[i] = cloneQuestion(question)
	}
	return out
}

func cloneQuestion(q Question) Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

// QuestionResult is the per-question line of a score report.
type QuestionResult struct {
	Prompt      string `json:"question"`
	IsCorrect   bool   `json:"isCorrect"`
	WasAnswered bool   `json:"wasAnswered"`
	ChosenText  string `json:"chosenText"`
	CorrectText string `json:"correctText"`
}

// ScoreReport summarizes a finished session.
type ScoreReport struct {
	Title        string           `json:"title"`
	Results      []QuestionResult `json:"results"`
	CorrectCount int              `json:"correctCount"`
	TotalCount   int              `json:"totalCount"`
	PassingScore int              `json:"passingScore"`
	Percentage   float64          `json:"percentage"`
	Passed       bool             `json:"passed"`
}

// SessionState is the lifecycle stage of a quiz session.
type SessionState int

const (
	NotStarted SessionState = iota
	InProgress
	Ended
)

func (s SessionState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON payloads.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AnswerFeedback marks the correct option of an answered question and
// whether the chosen one matches it.
type AnswerFeedback struct {
	Correct       bool `json:"correct"`
	CorrectOption int  `json:"correctOption"`
}

// Snapshot is the read-only view a renderer needs for one frame.
type Snapshot struct {
	SessionID        string          `json:"sessionId"`
	Title            string          `json:"title"`
	State            SessionState    `json:"state"`
	CurrentIndex     int             `json:"currentIndex"`
	TotalQuestions   int             `json:"totalQuestions"`
	Prompt           string          `json:"question"`
	Options          []string        `json:"options"`
	SelectedOption   int             `json:"selectedOption"`
	Feedback         *AnswerFeedback `json:"feedback,omitempty"`
	Answered         []bool          `json:"answered"`
	AnsweredCount    int             `json:"answeredCount"`
	RemainingSeconds int             `json:"remainingSeconds"`
	Clock            string          `json:"clock"`
	Warning          bool            `json:"warning"`
	Report           *ScoreReport    `json:"report,omitempty"`
}
