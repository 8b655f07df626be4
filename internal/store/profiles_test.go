package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/campusfound/campusfound/internal/db"
	"github.com/campusfound/campusfound/internal/model"
)

func createTestProfile(t *testing.T, database *sql.DB, email, role string) *model.Profile {
	t.Helper()

	p := &model.Profile{
		Email:        email,
		PasswordHash: "x",
		FullName:     "Test User",
		Role:         role,
	}
	if role == model.RoleStudent {
		p.StudentIDNumber = "63210000"
		p.Semester = "3"
	} else {
		p.Department = "Facilities"
	}

	created, err := CreateProfile(context.Background(), database, p)
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	return created
}

func TestCreateAndGetProfile(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := createTestProfile(t, database, "ana@campus.edu", model.RoleStudent)
	if p.ID == 0 {
		t.Error("expected non-zero profile id")
	}
	if p.StudentIDNumber != "63210000" || p.Semester != "3" {
		t.Errorf("student attributes not stored: %+v", p)
	}
	if p.Department != "" {
		t.Errorf("expected empty department for student, got %q", p.Department)
	}

	byEmail, err := GetProfileByEmail(ctx, database, "ana@campus.edu")
	if err != nil {
		t.Fatalf("GetProfileByEmail: %v", err)
	}
	if byEmail == nil || byEmail.ID != p.ID {
		t.Errorf("expected profile %d by email, got %+v", p.ID, byEmail)
	}
}

func TestGetProfileByEmailMissing(t *testing.T) {
	database := db.NewTestDB(t)

	p, err := GetProfileByEmail(context.Background(), database, "nobody@campus.edu")
	if err != nil {
		t.Fatalf("GetProfileByEmail: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for unknown email, got %+v", p)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestProfile(t, database, "dup@campus.edu", model.RoleStaff)
	_, err := CreateProfile(ctx, database, &model.Profile{
		Email:        "dup@campus.edu",
		PasswordHash: "x",
		FullName:     "Other",
		Role:         model.RoleStaff,
		Department:   "Library",
	})
	if err == nil {
		t.Error("expected duplicate email to be rejected")
	}
}
