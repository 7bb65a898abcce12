package store

import (
	"context"
	"errors"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and testable, and the
// explicit Tx type stops callers from accidentally nesting transactions.
type Store interface {
	Accounts() Accounts
	VerificationSecrets() VerificationSecrets

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to run the read-check-write sequences the account
	// service relies on for optimistic concurrency.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// ListFilter is the SQL-side filter set shared by List and Count. Free-text
// search is applied by the service layer after pagination, per the account
// listing contract.
type ListFilter struct {
	Role          *domain.Role
	Status        *domain.Status
	EmailVerified *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time

	// Limit and Offset apply to List only; Count ignores them.
	Limit  int
	Offset int
}

type Accounts interface {
	// GetByID returns the account or ErrNotFound.
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// GetByEmail performs a case-insensitive single-record lookup. Emails
	// are stored lower-cased; the driver normalises the argument.
	GetByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetByPhone is an exact-match lookup.
	GetByPhone(ctx context.Context, phone string) (domain.Account, error)

	// Insert writes a new account row. Returns ErrAlreadyExists on an email
	// uniqueness violation (also enforced by the schema as a backstop; the
	// service checks inside a transaction first).
	Insert(ctx context.Context, a domain.Account) error

	// Update rewrites the full row identified by a.ID. Returns ErrNotFound
	// if the row is absent. Version handling belongs to the service layer.
	Update(ctx context.Context, a domain.Account) error

	// Delete removes the row. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// List returns accounts matching the filter ordered by creation time
	// descending, paginated by Limit/Offset.
	List(ctx context.Context, f ListFilter) ([]domain.Account, error)

	// Count returns the number of accounts matching the filter, ignoring
	// Limit/Offset.
	Count(ctx context.Context, f ListFilter) (int64, error)
}

// VerificationSecrets stores the encrypted per-account secrets backing
// email/phone verification codes. Channel is "email" or "phone".
type VerificationSecrets interface {
	Get(ctx context.Context, accountID, channel string) ([]byte, error)
	Put(ctx context.Context, accountID, channel string, secret []byte) error
	Delete(ctx context.Context, accountID, channel string) error
}
