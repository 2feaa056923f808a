package app

import (
	"math"

	"sail-quiz-service/internal/domain"
)

// Score grades answers against quiz. Unanswered questions never count as correct.
func Score(quiz domain.SelectedQuiz, answers []int) domain.ScoreReport {
	questions := quiz.Questions()
	report := domain.ScoreReport{
		Title:        quiz.Title(),
		Results:      make([]domain.QuestionResult, 0, len(questions)),
		TotalCount:   len(questions),
		PassingScore: quiz.PassingScore(),
	}

	for i, q := range questions {
		chosen := domain.Unanswered
		if i < len(answers) {
			chosen = answers[i]
		}
		result := domain.QuestionResult{
			Prompt:      q.Prompt,
			WasAnswered: chosen != domain.Unanswered,
			IsCorrect:   chosen != domain.Unanswered && chosen == q.CorrectIndex,
			CorrectText: q.CorrectText(),
		}
		if result.WasAnswered && chosen < len(q.Options) {
			result.ChosenText = q.Options[chosen]
		}
		if result.IsCorrect {
			report.CorrectCount++
		}
		report.Results = append(report.Results, result)
	}

	report.Passed = report.CorrectCount >= report.PassingScore
	if report.TotalCount > 0 {
		pct := float64(report.CorrectCount) / float64(report.TotalCount) * 100
		report.Percentage = math.Round(pct*10) / 10
	}
	return report
}
