package app

import (
	"testing"

	"sail-quiz-service/internal/domain"
)

func TestScoreAllCorrectPasses(t *testing.T) {
	s := startedSession(t, 3)
	for i := 0; i < 3; i++ {
		q, _ := s.CurrentQuestion()
		mustNoErr(t, s.SelectAnswer(q.CorrectIndex))
		mustNoErr(t, s.GoToNext())
	}
	mustNoErr(t, s.Submit())

	report, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !report.Passed || report.CorrectCount != 3 || report.TotalCount != 3 || report.Percentage != 100.0 {
		t.Fatalf("unexpected report %+v", report)
	}
	for i, r := range report.Results {
		if !r.IsCorrect || !r.WasAnswered || r.ChosenText != r.CorrectText {
			t.Fatalf("result %d: %+v", i, r)
		}
	}
}

func TestScoreOneCorrectTwoUnansweredFails(t *testing.T) {
	s := startedSession(t, 3)
	q, _ := s.CurrentQuestion()
	mustNoErr(t, s.SelectAnswer(q.CorrectIndex))
	mustNoErr(t, s.Submit())

	report, err := s.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Passed || report.CorrectCount != 1 {
		t.Fatalf("expected failing report with 1 correct, got %+v", report)
	}
	if report.Percentage != 33.3 {
		t.Fatalf("expected 33.3%%, got %v", report.Percentage)
	}
	for _, r := range report.Results[1:] {
		if r.WasAnswered || r.IsCorrect || r.ChosenText != "" || r.CorrectText == "" {
			t.Fatalf("unanswered result wrong: %+v", r)
		}
	}
}

func TestScoreWrongAnswer(t *testing.T) {
	quiz := domain.NewSelectedQuiz("Lights", 1, 60, []domain.Question{
		{Prompt: "Starboard light?", Options: []string{"Red", "Green"}, CorrectIndex: 1},
		{Prompt: "Port light?", Options: []string{"Red", "Green"}, CorrectIndex: 0},
	})
	report := Score(quiz, []int{0, 0})
	if report.CorrectCount != 1 || !report.Passed || report.Percentage != 50.0 {
		t.Fatalf("unexpected report %+v", report)
	}
	first := report.Results[0]
	if first.IsCorrect || !first.WasAnswered || first.ChosenText != "Red" || first.CorrectText != "Green" {
		t.Fatalf("unexpected first result %+v", first)
	}
}

func TestScorePercentageRounding(t *testing.T) {
	questions := make([]domain.Question, 7)
	answers := make([]int, 7)
	for i := range questions {
		questions[i] = domain.Question{Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 0}
		answers[i] = domain.Unanswered
	}
	answers[0], answers[1] = 0, 0
	report := Score(domain.NewSelectedQuiz("Round", 3, 60, questions), answers)
	// 2/7 = 28.571...
	if report.Percentage != 28.6 || report.Passed {
		t.Fatalf("unexpected report %+v", report)
	}
}
