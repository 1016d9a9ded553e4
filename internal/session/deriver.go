package session

import (
	"math/rand"
	"sync"
	"time"

	"quiz-session-service/internal/domain"
)

// Deriver builds the active question set of an attempt.
// Order is unseeded by default; tests may inject a fixed source.
type Deriver struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewDeriver() *Deriver {
	return NewDeriverWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewDeriverWithSource is useful for deterministic shuffles in tests.
func NewDeriverWithSource(src rand.Source) *Deriver {
	return &Deriver{rnd: rand.New(src)}
}

// DeriveInitial shuffles questions, keeps at most limit of them (limit <= 0 keeps all)
// and shuffles each kept question's options independently.
func (d *Deriver) DeriveInitial(questions []domain.Question, limit int) ([]domain.Question, error) {
	if err := checkQuestions(questions); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	set := make([]domain.Question, len(questions))
	copy(set, questions)
	d.shuffleQuestionsLocked(set)

	if limit > 0 && limit < len(set) {
		set = set[:limit]
	}
	for i := range set {
		set[i] = d.withShuffledOptionsLocked(set[i])
	}
	return set, nil
}

// DeriveRetake builds a repetition drill from a finished set: failed questions
// (or every question when none failed) each appear repeatFactor times, every copy
// with its own option order, in a shuffled sequence.
func (d *Deriver) DeriveRetake(previous []domain.Question, selected map[int]string, repeatFactor int) ([]domain.Question, error) {
	if err := checkQuestions(previous); err != nil {
		return nil, err
	}
	if repeatFactor < 1 {
		repeatFactor = 1
	}

	pool := FailedQuestions(previous, selected)
	if len(pool) == 0 {
		pool = make([]domain.Question, len(previous))
		copy(pool, previous)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.shuffleQuestionsLocked(pool)
	set := make([]domain.Question, 0, len(pool)*repeatFactor)
	for _, q := range pool {
		for r := 0; r < repeatFactor; r++ {
			set = append(set, d.withShuffledOptionsLocked(q))
		}
	}
	d.shuffleQuestionsLocked(set)
	return set, nil
}

// FailedQuestions returns the questions whose recorded answer is missing or wrong, in order.
func FailedQuestions(questions []domain.Question, selected map[int]string) []domain.Question {
	var failed []domain.Question
	for i, q := range questions {
		answer, ok := selected[i]
		if !ok || !q.IsCorrect(answer) {
			failed = append(failed, q)
		}
	}
	return failed
}

func (d *Deriver) shuffleQuestionsLocked(qs []domain.Question) {
	d.rnd.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}

// withShuffledOptionsLocked copies the option slice so the quiz's own order is never touched.
func (d *Deriver) withShuffledOptionsLocked(q domain.Question) domain.Question {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)
	d.rnd.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	q.Options = opts
	return q
}

func checkQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrEmptyQuestionSet
	}
	for _, q := range questions {
		if err := domain.ValidateQuestion(q); err != nil {
			return err
		}
	}
	return nil
}
