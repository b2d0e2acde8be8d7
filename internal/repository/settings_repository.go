package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/besal25/dance-academy/internal/models"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings singleton, falling back to the stock admission fee
// when the row has not been seeded yet.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	query := `SELECT id, default_admission_fee FROM settings WHERE id = 1`
	s := &models.Settings{}
	err := r.db.QueryRowContext(ctx, query).Scan(&s.ID, &s.DefaultAdmissionFee)
	if err == sql.ErrNoRows {
		return &models.Settings{ID: 1, DefaultAdmissionFee: decimal.NewFromInt(1000)}, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
