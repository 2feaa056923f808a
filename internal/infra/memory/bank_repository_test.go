package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"sail-quiz-service/internal/domain"
)

func TestBankRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{
			"sailing": sampleBank(),
		}),
	}
	repo := NewBankRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background(), "sailing"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	bank, err := repo.GetBank(context.Background(), "sailing")
	if err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if bank.Title != "Sailing basics" {
		t.Fatalf("unexpected bank %+v", bank)
	}
}

func TestBankRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{
			"sailing": sampleBank(),
		}),
	}
	repo := NewBankRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	if _, err := repo.GetBank(context.Background(), "sailing"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetBank(context.Background(), "sailing"); err != nil {
		t.Fatalf("get bank after expiry: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestBankRepositoryMissingBank(t *testing.T) {
	repo := NewBankRepository(NewStaticBankLoader(nil), time.Minute)
	_, err := repo.GetBank(context.Background(), "nope")
	if !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected bank not found, got %v", err)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, bankID)
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID:               "sailing",
		Title:            "Sailing basics",
		TotalQuestions:   1,
		PassingScore:     1,
		TimeLimitSeconds: 60,
		Questions: []domain.Question{
			{
				Prompt:       "Which side is port?",
				Options:      []string{"Left", "Right"},
				CorrectIndex: 0,
			},
		},
	}
}
