// Package importer turns plain-text question sheets into question banks.
//
// Expected layout, one block per question:
//
//  1. Question text?
//     A) Option 1
//     B) Option 2
//     C) Option 3
//     D) Option 4
//     Answer: B
//
// The answer line may also be written as "Απάντηση: B".
package importer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"sail-quiz-service/internal/domain"
)

const (
	DefaultTitle            = "Τεστ Γνώσεων Ιστιοπλοΐας"
	DefaultTimeLimitSeconds = 3600
	DefaultPassingScore     = 24
	optionsPerQuestion      = 4
)

var (
	questionLine = regexp.MustCompile(`^\s*(\d+)\.\s+(.+?)\s*$`)
	optionLine   = regexp.MustCompile(`^\s*([A-D])\)\s*(.+?)\s*$`)
	answerLine   = regexp.MustCompile(`(?i)(?:Answer|Απάντηση):\s*([A-D])`)
)

// Warning describes a question block that was skipped.
type Warning struct {
	Number int
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("question %d: %s", w.Number, w.Reason)
}

// Options controls the bank metadata written around the parsed questions.
type Options struct {
	ID               string
	Title            string
	TimeLimitSeconds int
	PassingScore     int
}

type block struct {
	number int
	lines  []string
}

// Parse reads question blocks from r. Blocks without exactly four options or
// without an answer are skipped and reported as warnings.
func Parse(r io.Reader) ([]domain.Question, []Warning, error) {
	var (
		blocks  []block
		current *block
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := questionLine.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, block{number: len(blocks) + 1, lines: []string{m[2]}})
			current = &blocks[len(blocks)-1]
			continue
		}
		if current != nil {
			current.lines = append(current.lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read questions: %w", err)
	}

	var (
		questions []domain.Question
		warnings  []Warning
	)
	for _, b := range blocks {
		q, reason := parseBlock(b)
		if reason != "" {
			warnings = append(warnings, Warning{Number: b.number, Reason: reason})
			continue
		}
		q.ID = fmt.Sprintf("q%d", b.number)
		questions = append(questions, q)
	}
	return questions, warnings, nil
}

func parseBlock(b block) (domain.Question, string) {
	prompt := strings.TrimSpace(b.lines[0])
	if prompt == "" {
		return domain.Question{}, "empty question text"
	}

	var options []string
	for _, line := range b.lines[1:] {
		if m := optionLine.FindStringSubmatch(line); m != nil {
			options = append(options, m[2])
		}
	}
	if len(options) != optionsPerQuestion {
		return domain.Question{}, fmt.Sprintf("expected %d options, found %d", optionsPerQuestion, len(options))
	}

	m := answerLine.FindStringSubmatch(strings.Join(b.lines, "\n"))
	if m == nil {
		return domain.Question{}, "no answer found"
	}
	correct := int(strings.ToUpper(m[1])[0] - 'A')

	return domain.Question{
		Prompt:       prompt,
		Options:      options,
		CorrectIndex: correct,
	}, ""
}

// BuildBank wraps questions with bank metadata, filling defaults for unset
// fields. The passing score is clamped to the number of questions.
func BuildBank(questions []domain.Question, opts Options) domain.QuestionBank {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.TimeLimitSeconds <= 0 {
		opts.TimeLimitSeconds = DefaultTimeLimitSeconds
	}
	if opts.PassingScore <= 0 {
		opts.PassingScore = DefaultPassingScore
	}
	if opts.PassingScore > len(questions) {
		opts.PassingScore = len(questions)
	}
	return domain.QuestionBank{
		ID:               opts.ID,
		Title:            opts.Title,
		TotalQuestions:   len(questions),
		PassingScore:     opts.PassingScore,
		TimeLimitSeconds: opts.TimeLimitSeconds,
		Questions:        questions,
	}
}
