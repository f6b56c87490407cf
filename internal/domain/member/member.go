// Package member holds the storefront member record.
package member

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested member does not exist.
var ErrNotFound = errors.New("member not found")

// Status marks whether a member account may place orders.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Member is a registered storefront customer.
type Member struct {
	ID        int64
	Email     string
	Name      string
	Phone     string
	Address   string
	Status    Status
	CreatedAt time.Time
}

// Repository defines persistence operations for members.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	List(ctx context.Context) ([]Member, error)
	Create(ctx context.Context, m *Member) error
	SetStatus(ctx context.Context, id int64, status Status) error
}
