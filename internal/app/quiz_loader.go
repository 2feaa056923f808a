package app

import (
	"fmt"

	"sail-quiz-service/internal/domain"
)

// QuizLoader draws a randomized quiz out of a question bank.
type QuizLoader struct {
	rnd *Randomizer
}

func NewQuizLoader(rnd *Randomizer) *QuizLoader {
	if rnd == nil {
		rnd = NewRandomizer(nil)
	}
	return &QuizLoader{rnd: rnd}
}

// Load picks desiredCount questions without replacement and shuffles the
// options of each one. The correct answer follows its original position,
// so duplicate option texts cannot confuse it.
func (l *QuizLoader) Load(bank domain.QuestionBank, desiredCount int) (domain.SelectedQuiz, error) {
	if err := validateBank(bank, desiredCount); err != nil {
		return domain.SelectedQuiz{}, err
	}

	pool := Shuffle(l.rnd, bank.Questions)[:desiredCount]
	selected := make([]domain.Question, 0, desiredCount)
	for _, q := range pool {
		selected = append(selected, l.shuffleOptions(q))
	}
	return domain.NewSelectedQuiz(bank.Title, bank.PassingScore, bank.TimeLimitSeconds, selected), nil
}

func (l *QuizLoader) shuffleOptions(q domain.Question) domain.Question {
	positions := make([]int, len(q.Options))
	for i := range positions {
		positions[i] = i
	}
	positions = Shuffle(l.rnd, positions)

	options := make([]string, len(positions))
	correct := 0
	for to, from := range positions {
		options[to] = q.Options[from]
		if from == q.CorrectIndex {
			correct = to
		}
	}
	q.Options = options
	q.CorrectIndex = correct
	return q
}

func validateBank(bank domain.QuestionBank, desiredCount int) error {
	if desiredCount <= 0 {
		return fmt.Errorf("%w: question count must be positive, got %d", domain.ErrConfiguration, desiredCount)
	}
	if desiredCount > len(bank.Questions) {
		return fmt.Errorf("%w: %d questions requested but the bank has %d", domain.ErrConfiguration, desiredCount, len(bank.Questions))
	}
	if bank.PassingScore <= 0 {
		return fmt.Errorf("%w: passing score must be positive, got %d", domain.ErrConfiguration, bank.PassingScore)
	}
	if bank.PassingScore > desiredCount {
		return fmt.Errorf("%w: passing score %d exceeds question count %d", domain.ErrConfiguration, bank.PassingScore, desiredCount)
	}
	if bank.TimeLimitSeconds <= 0 {
		return fmt.Errorf("%w: time limit must be positive, got %d", domain.ErrConfiguration, bank.TimeLimitSeconds)
	}
	for i, q := range bank.Questions {
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has %d options", domain.ErrConfiguration, i+1, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct index %d out of range", domain.ErrConfiguration, i+1, q.CorrectIndex)
		}
	}
	return nil
}
