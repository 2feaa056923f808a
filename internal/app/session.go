package app

import (
	"fmt"

	"sail-quiz-service/internal/domain"
)

// Session is the quiz state machine: NotStarted -> InProgress -> Ended.
// It is not safe for concurrent use; QuizService serializes access.
type Session struct {
	state     domain.SessionState
	quiz      domain.SelectedQuiz
	answers   []int
	current   int
	remaining int
}

// NewSession returns a session waiting for Start.
func NewSession() *Session {
	return &Session{}
}

// Start begins the countdown on quiz with every question unanswered.
func (s *Session) Start(quiz domain.SelectedQuiz) error {
	if s.state != domain.NotStarted {
		return fmt.Errorf("%w: start while %s", domain.ErrInvalidState, s.state)
	}
	answers := make([]int, quiz.TotalQuestions())
	for i := range answers {
		answers[i] = domain.Unanswered
	}
	s.quiz = quiz
	s.answers = answers
	s.current = 0
	s.remaining = quiz.TimeLimitSeconds()
	s.state = domain.InProgress
	return nil
}

// SelectAnswer records option for the current question, replacing any earlier choice.
func (s *Session) SelectAnswer(option int) error {
	if err := s.requireInProgress("select answer"); err != nil {
		return err
	}
	q, _ := s.quiz.Question(s.current)
	if option < 0 || option >= len(q.Options) {
		return fmt.Errorf("%w: option %d for question with %d options", domain.ErrInvalidOption, option, len(q.Options))
	}
	s.answers[s.current] = option
	return nil
}

// GoToPrevious moves back one question; a no-op on the first question.
func (s *Session) GoToPrevious() error {
	if err := s.requireInProgress("previous"); err != nil {
		return err
	}
	if s.current > 0 {
		s.current--
	}
	return nil
}

// GoToNext moves forward one question; a no-op on the last question.
func (s *Session) GoToNext() error {
	if err := s.requireInProgress("next"); err != nil {
		return err
	}
	if s.current < len(s.answers)-1 {
		s.current++
	}
	return nil
}

// Tick advances the countdown by one second and submits once time runs out.
func (s *Session) Tick() (int, error) {
	if err := s.requireInProgress("tick"); err != nil {
		return s.remaining, err
	}
	s.remaining--
	if s.remaining <= 0 {
		s.remaining = 0
		return 0, s.Submit()
	}
	return s.remaining, nil
}

// Submit ends the session regardless of how many questions were answered.
func (s *Session) Submit() error {
	if err := s.requireInProgress("submit"); err != nil {
		return err
	}
	s.state = domain.Ended
	return nil
}

func (s *Session) requireInProgress(op string) error {
	if s.state != domain.InProgress {
		return fmt.Errorf("%w: %s while %s", domain.ErrInvalidState, op, s.state)
	}
	return nil
}

func (s *Session) State() domain.SessionState { return s.state }
func (s *Session) CurrentIndex() int          { return s.current }
func (s *Session) RemainingSeconds() int      { return s.remaining }
func (s *Session) Quiz() domain.SelectedQuiz  { return s.quiz }

// CurrentQuestion returns the question at the current index.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	if s.state == domain.NotStarted {
		return domain.Question{}, false
	}
	return s.quiz.Question(s.current)
}

// Answer returns the selected option for question i, or domain.Unanswered.
func (s *Session) Answer(i int) int {
	if i < 0 || i >= len(s.answers) {
		return domain.Unanswered
	}
	return s.answers[i]
}

// Answers returns a copy of the answer record.
func (s *Session) Answers() []int {
	return append([]int(nil), s.answers...)
}

func (s *Session) AnsweredCount() int {
	n := 0
	for _, a := range s.answers {
		if a != domain.Unanswered {
			n++
		}
	}
	return n
}

func (s *Session) UnansweredCount() int {
	return len(s.answers) - s.AnsweredCount()
}

// Report scores the session; only available once it has ended.
func (s *Session) Report() (domain.ScoreReport, error) {
	if s.state != domain.Ended {
		return domain.ScoreReport{}, fmt.Errorf("%w: report while %s", domain.ErrInvalidState, s.state)
	}
	return Score(s.quiz, s.answers), nil
}

// Snapshot builds the view model; warningSeconds is the low-time threshold.
func (s *Session) Snapshot(warningSeconds int) domain.Snapshot {
	snap := domain.Snapshot{
		Title:            s.quiz.Title(),
		State:            s.state,
		CurrentIndex:     s.current,
		TotalQuestions:   s.quiz.TotalQuestions(),
		SelectedOption:   s.Answer(s.current),
		Answered:         make([]bool, len(s.answers)),
		AnsweredCount:    s.AnsweredCount(),
		RemainingSeconds: s.remaining,
		Clock:            FormatClock(s.remaining),
		Warning:          s.state == domain.InProgress && s.remaining <= warningSeconds,
	}
	for i, a := range s.answers {
		snap.Answered[i] = a != domain.Unanswered
	}
	if q, ok := s.CurrentQuestion(); ok {
		snap.Prompt = q.Prompt
		snap.Options = q.Options
		if chosen := snap.SelectedOption; chosen != domain.Unanswered {
			snap.Feedback = &domain.AnswerFeedback{
				Correct:       chosen == q.CorrectIndex,
				CorrectOption: q.CorrectIndex,
			}
		}
	}
	if s.state == domain.Ended {
		report := Score(s.quiz, s.answers)
		snap.Report = &report
	}
	return snap
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
