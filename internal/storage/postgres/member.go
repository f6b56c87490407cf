package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/member"
)

const (
	memberColumns = `id, email, name, phone, address, status, created_at`

	getMemberSQL = `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	getMemberByEmailSQL = `SELECT ` + memberColumns + ` FROM members WHERE email = $1`

	listMembersSQL = `SELECT ` + memberColumns + ` FROM members ORDER BY created_at DESC`

	createMemberSQL = `INSERT INTO members (email, name, phone, address, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	setMemberStatusSQL = `UPDATE members SET status = $2 WHERE id = $1`
)

var _ member.Repository = (*MemberRepository)(nil)

// MemberRepository implements member.Repository backed by PostgreSQL.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a MemberRepository that uses the given pool.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// GetByID returns a member by id.
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*member.Member, error) {
	rows, err := r.pool.Query(ctx, getMemberSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting member %d: %w", id, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMember)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrNotFound
		}
		return nil, fmt.Errorf("getting member %d: %w", id, err)
	}
	return &m, nil
}

// GetByEmail returns a member by email.
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*member.Member, error) {
	rows, err := r.pool.Query(ctx, getMemberByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("getting member by email: %w", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMember)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrNotFound
		}
		return nil, fmt.Errorf("getting member by email: %w", err)
	}
	return &m, nil
}

// List returns all members, newest first.
func (r *MemberRepository) List(ctx context.Context) ([]member.Member, error) {
	rows, err := r.pool.Query(ctx, listMembersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	members, err := pgx.CollectRows(rows, scanMember)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// Create inserts a member and fills in its id and creation time.
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) error {
	if m.Status == "" {
		m.Status = member.StatusActive
	}
	err := r.pool.QueryRow(ctx, createMemberSQL,
		m.Email, m.Name, m.Phone, m.Address, m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating member %q: %w", m.Email, err)
	}
	return nil
}

// SetStatus updates a member's account status.
func (r *MemberRepository) SetStatus(ctx context.Context, id int64, status member.Status) error {
	tag, err := r.pool.Exec(ctx, setMemberStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("setting status of member %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return member.ErrNotFound
	}
	return nil
}

func scanMember(row pgx.CollectableRow) (member.Member, error) {
	var m member.Member
	err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Phone, &m.Address, &m.Status, &m.CreatedAt)
	return m, err
}
