package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"sail-quiz-service/internal/app"
	"sail-quiz-service/internal/domain"
	"sail-quiz-service/internal/infra/file"
	"sail-quiz-service/internal/infra/memory"
)

const notAnswered = "Not answered"

type playOptions struct {
	bankPath string
	count    int
	seed     int64
	tick     time.Duration
}

// NewPlayCmd runs a quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a timed quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if opts.bankPath == "" {
				opts.bankPath = cfg.Bank.File
			}
			if opts.count <= 0 {
				opts.count = cfg.Quiz.QuestionCount
			}
			return runPlay(cmd.Context(), opts, cfg.Quiz.WarningSeconds, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.bankPath, "bank", "", "path to a JSON or YAML question bank (defaults to bank.file)")
	cmd.Flags().IntVar(&opts.count, "count", 0, "number of questions to draw (defaults to the bank's total_questions)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed; 0 seeds from the clock")
	cmd.Flags().DurationVar(&opts.tick, "tick", time.Second, "countdown tick interval")
	return cmd
}

func runPlay(ctx context.Context, opts playOptions, warningSeconds int, in io.Reader, out io.Writer) error {
	if opts.bankPath == "" {
		return fmt.Errorf("no question bank given; use --bank or bank.file")
	}
	const bankID = "local"
	var src rand.Source
	if opts.seed != 0 {
		src = rand.NewSource(opts.seed)
	}
	banks := memory.NewBankRepository(file.NewBankLoader(map[string]string{bankID: opts.bankPath}), 0)
	service := app.NewQuizService(memory.NewSessionStore(), banks, app.Options{
		QuestionCount:  opts.count,
		WarningSeconds: warningSeconds,
		TickInterval:   opts.tick,
		Randomizer:     app.NewRandomizer(src),
	})

	snap, err := service.Start(ctx, bankID, 0)
	if err != nil {
		return err
	}
	sessionID := snap.SessionID
	defer service.Close(ctx, sessionID)

	updates, cancel, err := service.Subscribe(ctx, sessionID)
	if err != nil {
		return err
	}
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	v := &terminalView{out: out}
	fmt.Fprintf(out, "%s\n%s\n", snap.Title, playHelp)
	initial := <-updates
	if initial.Report != nil {
		v.report(*initial.Report)
		return nil
	}
	v.render(initial)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Report != nil {
				v.report(*update.Report)
				return nil
			}
			v.clock(update)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := v.command(ctx, service, sessionID, line, lines)
			if err != nil {
				fmt.Fprintf(out, "! %s\n", app.DescribeError(err))
			}
			if quit {
				return nil
			}
		}
	}
}

// readLines forwards trimmed input lines until in is exhausted or done is closed.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case <-done:
				return
			default:
			}
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-done:
				return
			}
		}
	}()
	return lines
}

const playHelp = "Commands: <number> choose option, n next, p previous, s submit, q quit"

type terminalView struct {
	out    io.Writer
	warned bool
}

// command runs one line of input and reports whether the session is over.
func (v *terminalView) command(ctx context.Context, service *app.QuizService, sessionID, line string, lines <-chan string) (bool, error) {
	var (
		snap domain.Snapshot
		err  error
	)
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "q", "quit":
		return true, nil
	case "n", "next":
		snap, err = service.Next(ctx, sessionID)
	case "p", "prev", "previous":
		snap, err = service.Previous(ctx, sessionID)
	case "s", "submit":
		unanswered, uerr := service.Unanswered(ctx, sessionID)
		if uerr != nil {
			return false, uerr
		}
		if unanswered > 0 {
			fmt.Fprintf(v.out, "You have %d unanswered questions. Submit anyway? [y/N] ", unanswered)
			answer, ok := <-lines
			if !ok || !strings.EqualFold(answer, "y") {
				fmt.Fprintln(v.out)
				return false, nil
			}
		}
		report, err := service.Submit(ctx, sessionID)
		if err != nil {
			return false, err
		}
		v.report(report)
		return true, nil
	default:
		n, perr := strconv.Atoi(line)
		if perr != nil {
			return false, errors.New(playHelp)
		}
		snap, err = service.SelectAnswer(ctx, sessionID, n-1)
	}
	if err != nil {
		return false, err
	}
	v.render(snap)
	return false, nil
}

func (v *terminalView) render(s domain.Snapshot) {
	if s.State != domain.InProgress {
		return
	}
	fmt.Fprintf(v.out, "\n[%s] Question %d/%d (%d answered)\n%s\n", s.Clock, s.CurrentIndex+1, s.TotalQuestions, s.AnsweredCount, s.Prompt)
	for i, opt := range s.Options {
		fmt.Fprintf(v.out, " %s %d) %s\n", optionMarker(s, i), i+1, opt)
	}
}

// optionMarker flags the chosen option, and once answered, the correct one
// and a wrong pick.
func optionMarker(s domain.Snapshot, i int) string {
	switch {
	case s.Feedback != nil && i == s.Feedback.CorrectOption:
		return "✓"
	case s.Feedback != nil && i == s.SelectedOption:
		return "✗"
	case i == s.SelectedOption:
		return "*"
	default:
		return " "
	}
}

// clock prints only the transitions a player must notice: the low-time warning.
func (v *terminalView) clock(s domain.Snapshot) {
	if s.Warning && !v.warned {
		v.warned = true
		fmt.Fprintf(v.out, "\n! %s remaining\n", s.Clock)
	}
}

func (v *terminalView) report(r domain.ScoreReport) {
	verdict := "FAILED"
	if r.Passed {
		verdict = "PASSED"
	}
	fmt.Fprintf(v.out, "\n%s\nCorrect answers: %d / %d\nScore: %.1f%%\nRequired correct answers: %d\n\n",
		verdict, r.CorrectCount, r.TotalCount, r.Percentage, r.PassingScore)
	for i, res := range r.Results {
		mark := "✗"
		if res.IsCorrect {
			mark = "✓"
		}
		chosen := res.ChosenText
		if !res.WasAnswered {
			chosen = notAnswered
		}
		fmt.Fprintf(v.out, "%s Question %d: %s\n   Your answer: %s\n", mark, i+1, res.Prompt, chosen)
		if !res.IsCorrect {
			fmt.Fprintf(v.out, "   Correct answer: %s\n", res.CorrectText)
		}
	}
}
