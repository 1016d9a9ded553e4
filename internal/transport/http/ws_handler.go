package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"quiz-session-service/internal/app"
	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/session"
)

var errNoAttempt = errors.New("no active attempt; send start first")

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	QuizID string `json:"quizId"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type loadingPayload struct {
	QuizID string `json:"quizId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type fetchResult struct {
	ticket session.Ticket
	quiz   domain.Quiz
	err    error
}

// conn is the state of one websocket client. Only the ServeWS loop touches it.
type conn struct {
	user    domain.User
	attempt session.Attempt
	active  bool
	guard   session.FetchGuard
	send    chan outboundMessage[any]
	fetched chan fetchResult
}

// ServeWS upgrades HTTP requests to websockets and runs one attempt per connection.
// The caller must already be authenticated (see RequireUser).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{
		user:    user,
		send:    make(chan outboundMessage[any], 16),
		fetched: make(chan fetchResult, 4),
	}
	inbox := make(chan inboundMessage)
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := ws.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// keep draining so the loop never blocks on send
				for range c.send {
				}
				return
			}
		}
	}()

	go func() {
		defer close(readerDone)
		for {
			var inbound inboundMessage
			if err := ws.ReadJSON(&inbound); err != nil {
				return
			}
			select {
			case inbox <- inbound:
			case <-ctx.Done():
				return
			}
		}
	}()

	c.send <- outboundMessage[any]{Type: "ready", Payload: user}

loop:
	for {
		select {
		case inbound := <-inbox:
			h.handle(ctx, c, inbound)
		case res := <-c.fetched:
			h.onFetched(c, res)
		case <-readerDone:
			break loop
		}
	}

	cancel()
	close(c.send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, c *conn, inbound inboundMessage) {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == "" {
			c.fail(domain.NewValidationError("quizId", "is required"))
			return
		}
		h.beginFetch(ctx, c, payload.QuizID)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.fail(domain.NewValidationError("option", "invalid answer payload"))
			return
		}
		if !c.active {
			c.fail(errNoAttempt)
			return
		}
		next, _, err := c.attempt.SelectAnswer(payload.Option)
		if err != nil {
			c.fail(err)
			return
		}
		c.attempt = next
		c.emit("feedback", newAttemptView(next, h.service.Options()))
	case "advance":
		h.apply(c, h.service.AdvanceAttempt)
	case "retake":
		h.apply(c, h.service.RetakeAttempt)
	case "next":
		if !c.active {
			c.fail(errNoAttempt)
			return
		}
		if !c.attempt.Completed() {
			c.fail(domain.ErrAttemptInProgress)
			return
		}
		nextID, err := h.service.NextQuizID(ctx, c.user, c.attempt.QuizID)
		if err != nil {
			c.fail(err)
			return
		}
		h.beginFetch(ctx, c, nextID)
	case "submit":
		if !c.active {
			c.fail(errNoAttempt)
			return
		}
		record, err := h.service.SubmitAttempt(ctx, c.user, c.attempt)
		if err != nil {
			c.fail(err)
			return
		}
		c.emit("submitted", newScoreView(record, h.service.Options()))
	default:
		c.fail(errors.New("unsupported message type"))
	}
}

// beginFetch loads a quiz off the loop. Only the newest request's result is applied.
func (h *WSHandler) beginFetch(ctx context.Context, c *conn, quizID string) {
	ticket := c.guard.Begin(quizID)
	c.emit("loading", loadingPayload{QuizID: quizID})
	go func() {
		quiz, err := h.service.FetchQuiz(ctx, c.user, quizID)
		select {
		case c.fetched <- fetchResult{ticket: ticket, quiz: quiz, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (h *WSHandler) onFetched(c *conn, res fetchResult) {
	if !c.guard.Accept(res.ticket) {
		return
	}
	if res.err != nil {
		c.fail(res.err)
		return
	}
	attempt, err := h.service.NewAttempt(c.user, res.quiz)
	if err != nil {
		c.fail(err)
		return
	}
	c.attempt, c.active = attempt, true
	c.emit("attempt", newAttemptView(attempt, h.service.Options()))
}

func (h *WSHandler) apply(c *conn, fn func(session.Attempt) (session.Attempt, error)) {
	if !c.active {
		c.fail(errNoAttempt)
		return
	}
	next, err := fn(c.attempt)
	if err != nil {
		c.fail(err)
		return
	}
	c.attempt = next
	c.emit("attempt", newAttemptView(next, h.service.Options()))
}

func (c *conn) emit(typ string, payload any) {
	c.send <- outboundMessage[any]{Type: typ, Payload: payload}
}

func (c *conn) fail(err error) {
	payload := errorPayload{Message: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		payload.Field = verr.Field
	}
	c.emit("error", payload)
}
