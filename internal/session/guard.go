package session

import (
	"sync"

	"quiz-session-service/internal/domain"
)

// Ticket identifies one in-flight quiz fetch.
type Ticket struct {
	QuizID string
	seq    uint64
}

// FetchGuard drops quiz fetch results that were superseded by a newer request.
type FetchGuard struct {
	mu     sync.Mutex
	seq    uint64
	quizID string
}

// Begin marks quizID as the wanted quiz and returns the ticket for its fetch.
func (g *FetchGuard) Begin(quizID string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.quizID = quizID
	return Ticket{QuizID: quizID, seq: g.seq}
}

// Accept reports whether a fetch result for t is still wanted.
func (g *FetchGuard) Accept(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return t.seq == g.seq && t.QuizID == g.quizID
}

// NextQuizID returns the quiz listed right after currentID.
func NextQuizID(list []domain.QuizSummary, currentID string) (string, bool) {
	for i, s := range list {
		if s.ID == currentID {
			if i+1 < len(list) {
				return list[i+1].ID, true
			}
			return "", false
		}
	}
	return "", false
}
