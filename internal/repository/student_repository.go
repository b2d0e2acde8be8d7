package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/besal25/dance-academy/internal/models"
)

type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, name, phone, dob, status, custom_monthly_fee, base_monthly_fee, admission_fee_type, admission_discount_percent, custom_admission_fee, last_admission_date, created_at, updated_at`

func scanStudent(row interface{ Scan(...interface{}) error }) (*models.Student, error) {
	s := &models.Student{}
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Phone,
		&s.DOB,
		&s.Status,
		&s.CustomMonthlyFee,
		&s.BaseMonthlyFee,
		&s.AdmissionFeeType,
		&s.AdmissionDiscountPercent,
		&s.CustomAdmissionFee,
		&s.LastAdmissionDate,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	query := `
		INSERT INTO students (name, phone, dob, status, custom_monthly_fee, base_monthly_fee, admission_fee_type, admission_discount_percent, custom_admission_fee, last_admission_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		s.Name,
		s.Phone,
		s.DOB,
		s.Status,
		s.CustomMonthlyFee,
		s.BaseMonthlyFee,
		s.AdmissionFeeType,
		s.AdmissionDiscountPercent,
		s.CustomAdmissionFee,
		s.LastAdmissionDate,
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.ID)
}

func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE id = $1`, studentColumns)
	s, err := scanStudent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *StudentRepository) ListActive(ctx context.Context) ([]*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE status = 'Active' ORDER BY id ASC`, studentColumns)
	return r.queryStudents(ctx, query)
}

func (r *StudentRepository) UpdateLastAdmissionDate(ctx context.Context, id int64, date string) error {
	query := `UPDATE students SET last_admission_date = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, date, time.Now(), id)
	return err
}

func (r *StudentRepository) SearchByNameOrPhone(ctx context.Context, search string, limit int) ([]*models.Student, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM students
		WHERE name ILIKE '%%' || $1 || '%%' OR phone ILIKE '%%' || $1 || '%%'
		ORDER BY name ASC
		LIMIT $2
	`, studentColumns)
	return r.queryStudents(ctx, query, search, limit)
}

func (r *StudentRepository) queryStudents(ctx context.Context, query string, args ...interface{}) ([]*models.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
