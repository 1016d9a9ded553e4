package session_test

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

func TestDeriveInitialSizeAndMembership(t *testing.T) {
	d := session.NewDeriverWithSource(rand.NewSource(7))
	bank := questionBank(12)
	byID := indexByID(bank)

	for _, limit := range []int{0, 1, 5, 12, 20, 30} {
		set, err := d.DeriveInitial(bank, limit)
		if err != nil {
			t.Fatalf("derive with limit %d: %v", limit, err)
		}
		want := len(bank)
		if limit > 0 && limit < want {
			want = limit
		}
		if len(set) != want {
			t.Fatalf("limit %d: expected %d questions, got %d", limit, want, len(set))
		}

		seen := map[string]bool{}
		for _, q := range set {
			orig, ok := byID[q.ID]
			if !ok {
				t.Fatalf("derived question %s not in bank", q.ID)
			}
			if seen[q.ID] {
				t.Fatalf("question %s derived twice", q.ID)
			}
			seen[q.ID] = true
			if !samePermutation(orig.Options, q.Options) {
				t.Fatalf("options of %s are not a permutation: %v vs %v", q.ID, orig.Options, q.Options)
			}
			if q.CorrectAnswer != orig.CorrectAnswer || !q.HasOption(q.CorrectAnswer) {
				t.Fatalf("correct answer of %s changed or lost", q.ID)
			}
		}
	}
}

func TestDeriveInitialDoesNotTouchBank(t *testing.T) {
	d := session.NewDeriverWithSource(rand.NewSource(1))
	bank := questionBank(6)
	before := fmt.Sprint(bank)

	for i := 0; i < 10; i++ {
		if _, err := d.DeriveInitial(bank, 3); err != nil {
			t.Fatalf("derive: %v", err)
		}
	}
	if fmt.Sprint(bank) != before {
		t.Fatalf("bank mutated by derivation")
	}
}

func TestDeriveInitialRejectsBadInput(t *testing.T) {
	d := session.NewDeriver()

	if _, err := d.DeriveInitial(nil, 20); !errors.Is(err, domain.ErrEmptyQuestionSet) {
		t.Fatalf("expected empty set error, got %v", err)
	}

	bad := []domain.Question{{ID: "q1", QuestionText: "?", Options: []string{"A", "B"}, CorrectAnswer: "C"}}
	if _, err := d.DeriveInitial(bad, 20); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeriveRetakeRepeatsFailedQuestions(t *testing.T) {
	d := session.NewDeriverWithSource(rand.NewSource(3))
	prev := questionBank(5)
	selected := map[int]string{}
	for i, q := range prev {
		selected[i] = q.CorrectAnswer
	}
	selected[1] = wrongAnswer(prev[1])
	selected[4] = wrongAnswer(prev[4])

	set, err := d.DeriveRetake(prev, selected, 4)
	if err != nil {
		t.Fatalf("retake: %v", err)
	}
	if len(set) != 8 {
		t.Fatalf("expected 8 questions, got %d", len(set))
	}
	counts := countByID(set)
	if len(counts) != 2 || counts[prev[1].ID] != 4 || counts[prev[4].ID] != 4 {
		t.Fatalf("expected 4 copies of each failed question, got %v", counts)
	}
	byID := indexByID(prev)
	for _, q := range set {
		if !samePermutation(byID[q.ID].Options, q.Options) {
			t.Fatalf("replica options of %s are not a permutation", q.ID)
		}
	}
}

func TestDeriveRetakeWithPerfectScoreRepeatsEverything(t *testing.T) {
	d := session.NewDeriverWithSource(rand.NewSource(5))
	prev := questionBank(3)
	selected := map[int]string{}
	for i, q := range prev {
		selected[i] = q.CorrectAnswer
	}

	set, err := d.DeriveRetake(prev, selected, 4)
	if err != nil {
		t.Fatalf("retake: %v", err)
	}
	if len(set) != len(prev)*4 {
		t.Fatalf("expected %d questions, got %d", len(prev)*4, len(set))
	}
	for id, n := range countByID(set) {
		if n != 4 {
			t.Fatalf("question %s appears %d times, want 4", id, n)
		}
	}
}

func TestDeriveRetakeTreatsUnansweredAsFailed(t *testing.T) {
	d := session.NewDeriver()
	prev := questionBank(3)
	selected := map[int]string{0: prev[0].CorrectAnswer, 1: prev[1].CorrectAnswer}

	set, err := d.DeriveRetake(prev, selected, 2)
	if err != nil {
		t.Fatalf("retake: %v", err)
	}
	counts := countByID(set)
	if len(set) != 2 || counts[prev[2].ID] != 2 {
		t.Fatalf("expected only the unanswered question twice, got %v", counts)
	}
}

func questionBank(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		opts := []string{
			fmt.Sprintf("q%d-a", i),
			fmt.Sprintf("q%d-b", i),
			fmt.Sprintf("q%d-c", i),
			fmt.Sprintf("q%d-d", i),
		}
		qs[i] = domain.Question{
			ID:            fmt.Sprintf("q%d", i),
			QuestionText:  fmt.Sprintf("Question %d", i),
			Options:       opts,
			CorrectAnswer: opts[i%len(opts)],
			Points:        1,
		}
	}
	return qs
}

func wrongAnswer(q domain.Question) string {
	for _, o := range q.Options {
		if o != q.CorrectAnswer {
			return o
		}
	}
	return ""
}

func indexByID(qs []domain.Question) map[string]domain.Question {
	out := make(map[string]domain.Question, len(qs))
	for _, q := range qs {
		out[q.ID] = q
	}
	return out
}

func countByID(qs []domain.Question) map[string]int {
	out := map[string]int{}
	for _, q := range qs {
		out[q.ID]++
	}
	return out
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
