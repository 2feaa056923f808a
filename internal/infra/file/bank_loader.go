package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"sail-quiz-service/internal/domain"
)

// BankLoader reads question bank documents from disk, one file per bank ID.
type BankLoader struct {
	files map[string]string
}

func NewBankLoader(files map[string]string) *BankLoader {
	return &BankLoader{files: files}
}

func (l *BankLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	path, ok := l.files[bankID]
	if !ok || path == "" {
		return domain.QuestionBank{}, domain.ErrBankNotFound
	}
	bank, err := ReadBank(path)
	if err != nil {
		return domain.QuestionBank{}, err
	}
	if bank.ID == "" {
		bank.ID = bankID
	}
	return bank, nil
}

// ReadBank decodes a JSON or YAML (by extension) bank document.
func ReadBank(path string) (domain.QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrBankNotFound, path)
		}
		return domain.QuestionBank{}, fmt.Errorf("read bank: %w", err)
	}
	return DecodeBank(data, filepath.Ext(path))
}

// DecodeBank parses data as YAML for .yaml/.yml and JSON otherwise.
func DecodeBank(data []byte, ext string) (domain.QuestionBank, error) {
	var bank domain.QuestionBank
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &bank); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("unmarshal bank: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&bank); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("unmarshal bank: %w", err)
		}
	}
	return bank, nil
}

// WriteBank stores bank as indented JSON, keeping non-ASCII text readable.
func WriteBank(path string, bank domain.QuestionBank) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bank); err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
