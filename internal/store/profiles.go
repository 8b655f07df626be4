package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campusfound/campusfound/internal/model"
)

// CreateProfile creates a new user profile.
func CreateProfile(ctx context.Context, db *sql.DB, p *model.Profile) (*model.Profile, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO profiles (email, password_hash, full_name, role, student_id_number, semester, department)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Email, p.PasswordHash, p.FullName, p.Role,
		nullable(p.StudentIDNumber), nullable(p.Semester), nullable(p.Department),
	)
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting profile id: %w", err)
	}

	return GetProfile(ctx, db, id)
}

// GetProfile returns a profile by ID.
func GetProfile(ctx context.Context, db *sql.DB, id int64) (*model.Profile, error) {
	return scanProfile(db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, role, student_id_number, semester, department, created_at
		 FROM profiles WHERE id = ?`, id,
	))
}

// GetProfileByEmail returns a profile by email.
func GetProfileByEmail(ctx context.Context, db *sql.DB, email string) (*model.Profile, error) {
	return scanProfile(db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, role, student_id_number, semester, department, created_at
		 FROM profiles WHERE email = ?`, email,
	))
}

func scanProfile(row *sql.Row) (*model.Profile, error) {
	p := &model.Profile{}
	var studentID, semester, department sql.NullString
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Role,
		&studentID, &semester, &department, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	p.StudentIDNumber = studentID.String
	p.Semester = semester.String
	p.Department = department.String
	return p, nil
}

// nullable maps empty strings to NULL so optional profile attributes stay
// absent instead of becoming empty text.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
