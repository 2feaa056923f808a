package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"sail-quiz-service/internal/domain"
)

// BankStore loads and saves question bank JSONB documents in Postgres.
type BankStore struct {
	pool *pgxpool.Pool
}

func NewBankStore(pool *pgxpool.Pool) *BankStore {
	return &BankStore{pool: pool}
}

func (s *BankStore) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE id=$1`, bankID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrBankNotFound, bankID)
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("unmarshal bank: %w", err)
	}
	bank.ID = bankID
	return bank, nil
}

// SaveBank inserts or replaces the bank stored under bank.ID.
func (s *BankStore) SaveBank(ctx context.Context, bank domain.QuestionBank) error {
	if bank.ID == "" {
		return fmt.Errorf("%w: bank id is required", domain.ErrConfiguration)
	}
	data, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO question_banks (id, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		bank.ID, string(data))
	if err != nil {
		return fmt.Errorf("save bank: %w", err)
	}
	return nil
}
