package dialogue

import (
	"context"

	"github.com/google/uuid"
)

// SessionStore is the persistence boundary of the engine. All mutating calls
// are scoped to the owning user; an implementation must reject mutations
// against a session the user does not own (returning ErrSessionNotFound is
// the conventional way).
type SessionStore interface {
	// Create persists a new session and fills in store-assigned fields
	// (timestamps). The session arrives with CurrentStep 0, no messages and
	// IsResolved false.
	Create(ctx context.Context, session *Session) error

	// Get loads a session with its messages in insertion order.
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*Session, error)

	// List returns the user's sessions ordered by UpdatedAt descending,
	// without message bodies.
	List(ctx context.Context, userID uuid.UUID) ([]*Session, error)

	// AppendAssistant stores an assistant reply. CurrentStep is untouched.
	AppendAssistant(ctx context.Context, sessionID uuid.UUID, msg *Message) error

	// AppendTurn stores a user message and the assistant reply to it in one
	// transaction, incrementing CurrentStep by exactly 1. Either both
	// messages and the step land, or none of them do.
	AppendTurn(ctx context.Context, sessionID uuid.UUID, user, assistant *Message) error

	// UpdateTitle replaces the session title.
	UpdateTitle(ctx context.Context, sessionID uuid.UUID, title string) error

	// UpdateProblem replaces the session problem statement.
	UpdateProblem(ctx context.Context, sessionID uuid.UUID, problem string) error

	// MarkNeedsVerification flags the session as awaiting confirmation of
	// the problem read from its attachments. The flag must survive in
	// listings, which carry no message bodies.
	MarkNeedsVerification(ctx context.Context, sessionID uuid.UUID) error

	// Resolve marks the session resolved and stores the final answer
	// document. Idempotent: resolving an already-resolved session is a no-op
	// that keeps the first answer.
	Resolve(ctx context.Context, sessionID uuid.UUID, finalAnswer string) error

	// Delete hard-deletes the session and its messages. Appends against a
	// deleted session must fail, not resurrect it.
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

// QuotaTracker gates session creation per user per day.
type QuotaTracker interface {
	// CheckAndConsume atomically spends one use if the daily limit permits.
	// Returns false when the limit is reached. A storage failure must deny
	// (fail closed) and surface as an error.
	CheckAndConsume(ctx context.Context, userID, sessionID uuid.UUID) (bool, error)

	// Remaining reports today's leftover allowance without mutating state.
	Remaining(ctx context.Context, userID uuid.UUID) (int, error)
}
