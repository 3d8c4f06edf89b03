package conversation

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists sessions and their turns. AppendTurn must write
// the turn and the updated session atomically so turn numbers stay
// contiguous even if the process dies between the two.
type Repository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status Status) error
	AppendTurn(ctx context.Context, session *Session, turn *Turn) error
	ListTurns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error)
}
