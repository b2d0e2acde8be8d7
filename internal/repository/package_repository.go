package repository

import (
	"context"
	"database/sql"

	"github.com/besal25/dance-academy/internal/models"
)

type PackageRepository struct {
	db *sql.DB
}

func NewPackageRepository(db *sql.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) GetPackage(ctx context.Context, id int64) (*models.Package, error) {
	query := `SELECT id, name, price, duration_months, created_at FROM packages WHERE id = $1`
	pkg := &models.Package{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&pkg.ID,
		&pkg.Name,
		&pkg.Price,
		&pkg.DurationMonths,
		&pkg.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func (r *PackageRepository) InsertEnrollment(ctx context.Context, e *models.PackageEnrollment) error {
	query := `
		INSERT INTO package_enrollments (student_id, package_id, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		e.StudentID,
		e.PackageID,
		e.StartDate,
		e.EndDate,
		e.CreatedAt,
	).Scan(&e.ID)
}

func (r *PackageRepository) GetEnrollment(ctx context.Context, id int64) (*models.PackageEnrollment, error) {
	query := `
		SELECT id, student_id, package_id, start_date, end_date, created_at
		FROM package_enrollments
		WHERE id = $1
	`
	e := &models.PackageEnrollment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.StudentID,
		&e.PackageID,
		&e.StartDate,
		&e.EndDate,
		&e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PackageRepository) DeleteEnrollment(ctx context.Context, id int64) error {
	query := `DELETE FROM package_enrollments WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// FindActive relies on zero-padded date keys: lexicographic comparison on the
// range bounds is chronological comparison.
func (r *PackageRepository) FindActive(ctx context.Context, studentID int64, date string) (*models.PackageEnrollment, error) {
	query := `
		SELECT id, student_id, package_id, start_date, end_date, created_at
		FROM package_enrollments
		WHERE student_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY id ASC
		LIMIT 1
	`
	e := &models.PackageEnrollment{}
	err := r.db.QueryRowContext(ctx, query, studentID, date).Scan(
		&e.ID,
		&e.StudentID,
		&e.PackageID,
		&e.StartDate,
		&e.EndDate,
		&e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
