package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carebridge-ai/symptom-core/generation"
	"github.com/carebridge-ai/symptom-core/llm"
	"github.com/carebridge-ai/symptom-core/triage"
)

const (
	DefaultContextTurns   = 10
	DefaultMaxTurns       = 20
	DefaultSessionTimeout = time.Hour
)

// Manager owns the session state machine. Turn submission for one
// session is serialized through a per-session lock; distinct sessions
// proceed in parallel.
type Manager struct {
	repo           Repository
	locks          sync.Map // session id -> *sync.Mutex
	contextTurns   int
	maxTurns       int
	sessionTimeout time.Duration
}

func NewManager(repo Repository, contextTurns, maxTurns int, sessionTimeout time.Duration) *Manager {
	if contextTurns <= 0 {
		contextTurns = DefaultContextTurns
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if sessionTimeout <= 0 {
		sessionTimeout = DefaultSessionTimeout
	}

	return &Manager{
		repo:           repo,
		contextTurns:   contextTurns,
		maxTurns:       maxTurns,
		sessionTimeout: sessionTimeout,
	}
}

// Lock serializes turn processing for one session. Returns the unlock
// function; callers must hold the lock from validation through
// AppendTurn so turn numbers stay contiguous.
func (m *Manager) Lock(sessionID uuid.UUID) func() {
	actual, _ := m.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// StartSession creates a session in the created state.
func (m *Manager) StartSession(ctx context.Context, patient PatientProfile) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.New(),
		Patient:   patient,
		Status:    StatusCreated,
		TurnCount: 0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ActiveSession loads a session and validates it can accept a message.
// Sessions idle past the timeout are closed on access.
func (m *Manager) ActiveSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Status == StatusClosed {
		return nil, ErrSessionClosed
	}
	if m.Expired(session) {
		if err := m.repo.UpdateSessionStatus(ctx, id, StatusClosed); err != nil {
			return nil, err
		}
		return nil, ErrSessionClosed
	}
	if session.TurnCount >= m.maxTurns {
		return nil, fmt.Errorf("%w: turn limit reached", ErrSessionClosed)
	}
	return session, nil
}

// Expired reports whether the session has been idle past the timeout.
func (m *Manager) Expired(session *Session) bool {
	return time.Since(session.UpdatedAt) > m.sessionTimeout
}

// AppendTurn assigns the next turn number, persists the turn, and
// moves the session to active. Callers must hold the session lock.
func (m *Manager) AppendTurn(ctx context.Context, session *Session, message string, severity int, urgency triage.Urgency, assessment generation.Assessment) (*Turn, error) {
	now := time.Now().UTC()
	turn := &Turn{
		SessionID:  session.ID,
		TurnNumber: session.TurnCount + 1,
		Message:    message,
		Severity:   severity,
		Urgency:    urgency,
		Assessment: assessment,
		CreatedAt:  now,
	}

	session.TurnCount = turn.TurnNumber
	session.Status = StatusActive
	session.UpdatedAt = now

	if err := m.repo.AppendTurn(ctx, session, turn); err != nil {
		return nil, fmt.Errorf("failed to persist turn %d: %w", turn.TurnNumber, err)
	}
	return turn, nil
}

// CloseSession is terminal and valid from any non-closed state.
func (m *Manager) CloseSession(ctx context.Context, id uuid.UUID) error {
	session, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session.Status == StatusClosed {
		return ErrSessionClosed
	}
	return m.repo.UpdateSessionStatus(ctx, id, StatusClosed)
}

// History returns the session and all its turns in order.
func (m *Manager) History(ctx context.Context, id uuid.UUID) (*Session, []Turn, error) {
	session, err := m.repo.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	turns, err := m.repo.ListTurns(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return session, turns, nil
}

// ContextWindow assembles the bounded history snapshot passed to
// generation: the most recent contextTurns turns, oldest first, as
// alternating user/assistant messages. Older turns are dropped,
// never reordered.
func (m *Manager) ContextWindow(ctx context.Context, sessionID uuid.UUID) ([]llm.Message, error) {
	turns, err := m.repo.ListTurns(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(turns) > m.contextTurns {
		turns = turns[len(turns)-m.contextTurns:]
	}

	messages := make([]llm.Message, 0, len(turns)*2)
	for _, t := range turns {
		messages = append(messages, llm.Message{Role: "user", Content: t.Message})
		if t.Assessment.Reasoning != "" {
			messages = append(messages, llm.Message{Role: "assistant", Content: t.Assessment.Reasoning})
		}
	}
	return messages, nil
}

// Summarize produces the human-readable recap attached to history
// responses.
func Summarize(session *Session, turns []Turn) string {
	if len(turns) == 0 {
		return "No messages have been exchanged in this session."
	}

	highest := triage.UrgencyRoutine
	for _, t := range turns {
		if rank(t.Urgency) > rank(highest) {
			highest = t.Urgency
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session with %d turn(s), status %s. ", len(turns), session.Status)
	fmt.Fprintf(&b, "Highest urgency assessed: %s. ", highest)
	fmt.Fprintf(&b, "First reported: %q. ", turns[0].Message)
	fmt.Fprintf(&b, "Most recent: %q.", turns[len(turns)-1].Message)
	return b.String()
}

func rank(u triage.Urgency) int {
	switch u {
	case triage.UrgencyEmergency:
		return 2
	case triage.UrgencyUrgent:
		return 1
	default:
		return 0
	}
}
