package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/leadbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LeadRepository is the audit trail of qualification submissions and their
// booking outcomes. It deliberately knows nothing about booking tokens.
type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
	UpdateOutcome(ctx context.Context, id string, status domain.LeadStatus, slotTime *time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
}

type PGLeadRepository struct {
	db *pgxpool.Pool
}

func NewLeadRepository(db *pgxpool.Pool) LeadRepository {
	return &PGLeadRepository{db: db}
}

func (r *PGLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.QueryRow(ctx, `INSERT INTO leads (id, name, email, based, occupation, income, willingness, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		lead.ID, lead.Name, lead.Email, lead.Based, lead.Occupation, lead.Income, lead.Willingness, lead.Status).
		Scan(&lead.CreatedAt, &lead.UpdatedAt)
}

func (r *PGLeadRepository) UpdateOutcome(ctx context.Context, id string, status domain.LeadStatus, slotTime *time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE leads SET status=$1, slot_time=$2, updated_at=now() WHERE id=$3`, status, slotTime, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return errors.New("lead not found")
	}
	return nil
}

func (r *PGLeadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, based, occupation, income, willingness, status, slot_time, created_at, updated_at FROM leads WHERE id=$1`, id)
	var l domain.Lead
	if err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Based, &l.Occupation, &l.Income, &l.Willingness, &l.Status, &l.SlotTime, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

var _ LeadRepository = (*PGLeadRepository)(nil)
