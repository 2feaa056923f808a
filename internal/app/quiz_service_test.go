package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"sail-quiz-service/internal/app"
	"sail-quiz-service/internal/domain"
	"sail-quiz-service/internal/infra/memory"
)

func TestStartAndAnswer(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{})

	snap, err := service.Start(ctx, "sailing", 3)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if snap.SessionID == "" || snap.TotalQuestions != 3 || snap.CurrentIndex != 0 {
		t.Fatalf("unexpected start snapshot %+v", snap)
	}
	if snap.SelectedOption != domain.Unanswered || snap.RemainingSeconds != 900 {
		t.Fatalf("unexpected start snapshot %+v", snap)
	}

	snap, err = service.SelectAnswer(ctx, snap.SessionID, 1)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if snap.SelectedOption != 1 || snap.AnsweredCount != 1 {
		t.Fatalf("expected answer recorded, got %+v", snap)
	}

	snap, err = service.Next(ctx, snap.SessionID)
	if err != nil || snap.CurrentIndex != 1 {
		t.Fatalf("next: %v %+v", err, snap)
	}
	snap, err = service.Previous(ctx, snap.SessionID)
	if err != nil || snap.CurrentIndex != 0 {
		t.Fatalf("previous: %v %+v", err, snap)
	}

	unanswered, err := service.Unanswered(ctx, snap.SessionID)
	if err != nil || unanswered != 2 {
		t.Fatalf("expected 2 unanswered, got %d %v", unanswered, err)
	}
}

func TestStartUsesBankTotalByDefault(t *testing.T) {
	service := newTestService(app.Options{})
	snap, err := service.Start(context.Background(), "sailing", 0)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if snap.TotalQuestions != 4 {
		t.Fatalf("expected bank total of 4, got %d", snap.TotalQuestions)
	}

	service = newTestService(app.Options{QuestionCount: 2})
	snap, err = service.Start(context.Background(), "sailing", 0)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if snap.TotalQuestions != 2 {
		t.Fatalf("expected configured count of 2, got %d", snap.TotalQuestions)
	}
}

func TestStartErrors(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{})

	if _, err := service.Start(ctx, "unknown", 3); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected bank not found, got %v", err)
	}
	if _, err := service.Start(ctx, "sailing", 6); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := service.SelectAnswer(ctx, "nope", 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestSubmitProducesReport(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{})
	snap, err := service.Start(ctx, "sailing", 3)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := snap.SessionID

	if _, err := service.Report(ctx, id); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected no report before submit, got %v", err)
	}

	report, err := service.Submit(ctx, id)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if report.Passed || report.CorrectCount != 0 || report.TotalCount != 3 {
		t.Fatalf("expected empty failing report, got %+v", report)
	}

	if _, err := service.SelectAnswer(ctx, id, 0); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state after submit, got %v", err)
	}
	again, err := service.Report(ctx, id)
	if err != nil || again.TotalCount != 3 {
		t.Fatalf("report after submit: %v %+v", err, again)
	}
}

func TestManualTicksExpireSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{WarningSeconds: 2})
	snap, err := service.Start(ctx, "quick", 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if snap.Warning {
		t.Fatalf("no warning at 3s with a 2s threshold")
	}

	snap, err = service.Tick(ctx, snap.SessionID)
	if err != nil || !snap.Warning || snap.RemainingSeconds != 2 {
		t.Fatalf("expected warning at 2s: %v %+v", err, snap)
	}
	_, _ = service.Tick(ctx, snap.SessionID)
	snap, err = service.Tick(ctx, snap.SessionID)
	if err != nil {
		t.Fatalf("final tick: %v", err)
	}
	if snap.State != domain.Ended || snap.RemainingSeconds != 0 || snap.Report == nil {
		t.Fatalf("expected ended snapshot with report, got %+v", snap)
	}
	if _, err := service.Tick(ctx, snap.SessionID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state on stale tick, got %v", err)
	}
}

func TestCountdownExpiresSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{TickInterval: 5 * time.Millisecond})
	snap, err := service.Start(ctx, "quick", 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	updates, cancel, err := service.Subscribe(ctx, snap.SessionID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case update := <-updates:
			if update.State == domain.Ended {
				if update.RemainingSeconds != 0 || update.Report == nil {
					t.Fatalf("unexpected final update %+v", update)
				}
				return
			}
		case <-deadline:
			t.Fatalf("countdown never ended the session")
		}
	}
}

func TestRestartReRandomizes(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{})
	snap, err := service.Start(ctx, "sailing", 3)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := snap.SessionID
	_, _ = service.SelectAnswer(ctx, id, 0)
	_, _ = service.Next(ctx, id)
	_, _ = service.Tick(ctx, id)
	if _, err := service.Submit(ctx, id); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	snap, err = service.Restart(ctx, id)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	if snap.SessionID != id || snap.State != domain.InProgress || snap.CurrentIndex != 0 || snap.AnsweredCount != 0 || snap.RemainingSeconds != 900 {
		t.Fatalf("expected a clean session after restart, got %+v", snap)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{})
	snap, err := service.Start(ctx, "sailing", 3)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	ch, cancel, err := service.Subscribe(ctx, snap.SessionID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	<-ch // initial snapshot

	if _, err := service.SelectAnswer(ctx, snap.SessionID, 2); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	update := <-ch
	if update.SelectedOption != 2 {
		t.Fatalf("expected selected option 2, got %+v", update)
	}
}

func TestSubscribeInitialSnapshotIsNeverStale(t *testing.T) {
	ctx := context.Background()
	service := newTestService(app.Options{})
	snap, err := service.Start(ctx, "sailing", 3)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	id := snap.SessionID

	ticked := make(chan struct{})
	go func() {
		defer close(ticked)
		for i := 0; i < 500; i++ {
			_, _ = service.Tick(ctx, id)
		}
	}()

	for i := 0; i < 200; i++ {
		ch, cancel, err := service.Subscribe(ctx, id)
		if err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
		prev := (<-ch).RemainingSeconds
		for j := 0; j < 4; j++ {
			select {
			case update := <-ch:
				if update.RemainingSeconds > prev {
					t.Fatalf("snapshot went back in time: %d after %d", update.RemainingSeconds, prev)
				}
				prev = update.RemainingSeconds
			default:
			}
		}
		cancel()
	}
	<-ticked
}

func TestCloseForgetsSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	service := app.NewQuizService(store, testBanks(), app.Options{TickInterval: time.Hour})
	snap, err := service.Start(ctx, "sailing", 3)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	ch, _, err := service.Subscribe(ctx, snap.SessionID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	<-ch

	service.Close(ctx, snap.SessionID)
	if store.Len() != 0 {
		t.Fatalf("expected session removed, %d left", store.Len())
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected subscriber channel closed")
	}
	if _, err := service.Snapshot(ctx, snap.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func newTestService(opts app.Options) *app.QuizService {
	opts.Randomizer = app.NewRandomizer(rand.NewSource(1))
	return app.NewQuizService(memory.NewSessionStore(), testBanks(), opts)
}

func testBanks() *memory.BankRepository {
	return memory.NewBankRepository(memory.NewStaticBankLoader(map[string]domain.QuestionBank{
		"sailing": {
			Title:            "Sailing",
			TotalQuestions:   4,
			PassingScore:     2,
			TimeLimitSeconds: 900,
			Questions: []domain.Question{
				{Prompt: "Port side?", Options: []string{"Left", "Right", "Bow"}, CorrectIndex: 0},
				{Prompt: "Starboard light?", Options: []string{"Red", "Green", "White"}, CorrectIndex: 1},
				{Prompt: "Rear of the boat?", Options: []string{"Bow", "Stern", "Keel"}, CorrectIndex: 1},
				{Prompt: "Line controlling a sail?", Options: []string{"Halyard", "Sheet", "Warp"}, CorrectIndex: 1},
				{Prompt: "Fixed loop knot?", Options: []string{"Bowline", "Reef", "Clove hitch"}, CorrectIndex: 0},
			},
		},
		"quick": {
			Title:            "Quick",
			TotalQuestions:   1,
			PassingScore:     1,
			TimeLimitSeconds: 3,
			Questions: []domain.Question{
				{Prompt: "Green light side?", Options: []string{"Starboard", "Port"}, CorrectIndex: 0},
			},
		},
	}), time.Minute)
}
