package importer

import (
	"strings"
	"testing"
)

const sheet = `Sailing exam

1. Which side is port?
A) Left
B) Right
C) Front
D) Back
Answer: A

2. What is the stern?
A) Bow
B) Rear of the boat
C) Mast
D) Keel
Απάντηση: b

3. Broken question with two options
A) Yes
B) No
Answer: A

4. Question without answer
A) One
B) Two
C) Three
D) Four
`

func TestParseQuestions(t *testing.T) {
	questions, warnings, err := Parse(strings.NewReader(sheet))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d: %+v", len(questions), questions)
	}
	if questions[0].Prompt != "Which side is port?" || questions[0].CorrectIndex != 0 {
		t.Fatalf("unexpected first question %+v", questions[0])
	}
	if questions[1].CorrectIndex != 1 || questions[1].CorrectText() != "Rear of the boat" {
		t.Fatalf("unexpected second question %+v", questions[1])
	}
	if questions[1].ID != "q2" {
		t.Fatalf("expected id q2, got %q", questions[1].ID)
	}

	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
	if warnings[0].Number != 3 || !strings.Contains(warnings[0].Reason, "found 2") {
		t.Fatalf("unexpected warning %v", warnings[0])
	}
	if warnings[1].Number != 4 || warnings[1].Reason != "no answer found" {
		t.Fatalf("unexpected warning %v", warnings[1])
	}
}

func TestBuildBankDefaults(t *testing.T) {
	questions, _, err := Parse(strings.NewReader(sheet))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	bank := BuildBank(questions, Options{ID: "sailing"})
	if bank.Title != DefaultTitle || bank.TimeLimitSeconds != DefaultTimeLimitSeconds {
		t.Fatalf("expected defaults, got %+v", bank)
	}
	if bank.TotalQuestions != 2 || bank.PassingScore != 2 {
		t.Fatalf("expected passing score clamped to 2 questions, got %+v", bank)
	}

	bank = BuildBank(questions, Options{Title: "Custom", TimeLimitSeconds: 60, PassingScore: 1})
	if bank.Title != "Custom" || bank.TimeLimitSeconds != 60 || bank.PassingScore != 1 {
		t.Fatalf("expected overrides, got %+v", bank)
	}
}
