package ports

import (
	"context"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

// AccountRepository is the persistence contract for user accounts.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Save writes the ledger-owned fields of user in a single document update.
	// It fails with domain.ErrConflict when user.Version is stale.
	Save(ctx context.Context, user *domain.User) error
	// NextHDIndex reserves the next unused wallet index.
	NextHDIndex(ctx context.Context) (int, error)
}

// SweepAuditRepository stores an audit trail of sweeps that credited an account.
type SweepAuditRepository interface {
	InsertSweep(ctx context.Context, record *domain.SweepRecord) error
}
