package chat

import (
	"context"
	"errors"
	"testing"
)

func TestUsernameExists(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exists, err := s.UsernameExists(ctx, "alice")
	if err != nil {
		t.Fatalf("exists before: %v", err)
	}
	if exists {
		t.Fatalf("expected alice to be free")
	}

	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{
		UserID:   "auth0|1",
		Username: "alice",
		Password: "pw",
	}); err != nil {
		t.Fatalf("create auth: %v", err)
	}

	exists, err = s.UsernameExists(ctx, "alice")
	if err != nil {
		t.Fatalf("exists after: %v", err)
	}
	if !exists {
		t.Fatalf("expected alice to be taken")
	}
}

func TestCreateAuthRecord_Defaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.CreateAuthRecord(ctx, NewAuthRecord{
		UserID:   "u1",
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("create auth: %v", err)
	}
	if rec.Role != AuthRoleUser {
		t.Fatalf("expected default role user, got %q", rec.Role)
	}
	if rec.PasswordHash == "" || rec.PasswordHash == "correct horse" {
		t.Fatalf("expected hashed password, got %q", rec.PasswordHash)
	}

	var u User
	if err := s.db.Take(&u, "user_id = ?", "u1").Error; err != nil {
		t.Fatalf("expected user row: %v", err)
	}
	if u.Username == nil || *u.Username != "alice" {
		t.Fatalf("expected user row to carry the username, got %v", u.Username)
	}
}

func TestCreateAuthRecord_ExistingUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.ListUserSessions(ctx, "u1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u1", Username: "late", Password: "pw", Role: AuthRoleClient}); err != nil {
		t.Fatalf("create auth for existing user: %v", err)
	}
	rec, ok, err := s.GetAuthRecord(ctx, "late")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if rec.Role != AuthRoleClient || rec.UserID != "u1" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestCreateAuthRecord_UniqueConstraints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u1", Username: "alice", Email: "a@example.com", Password: "pw"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u2", Username: "alice", Password: "pw"})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected duplicate username to violate constraint, got %v", err)
	}

	_, err = s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u3", Username: "carol", Email: "a@example.com", Password: "pw"})
	if !errors.Is(err, ErrConstraintViolation) {
		t.Fatalf("expected duplicate email to violate constraint, got %v", err)
	}

	// the failed transactions must not leave user rows behind
	if n := countRows(t, s, &User{}, "user_id IN ?", []string{"u2", "u3"}); n != 0 {
		t.Fatalf("expected rollback of user rows, got %d", n)
	}

	// several accounts without email are fine
	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u4", Username: "dave", Password: "pw"}); err != nil {
		t.Fatalf("create without email: %v", err)
	}
	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u5", Username: "erin", Password: "pw"}); err != nil {
		t.Fatalf("second create without email: %v", err)
	}
}

func TestCreateAuthRecord_Validation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{Username: "x", Password: "pw"}); !errors.Is(err, ErrEmptyUserID) {
		t.Fatalf("expected ErrEmptyUserID, got %v", err)
	}
	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u1", Password: "pw"}); err == nil {
		t.Fatalf("expected missing username to fail")
	}
	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u1", Username: "x", Password: "pw", Role: "admin"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u1", Username: "x"}); err == nil {
		t.Fatalf("expected empty password to fail")
	}
}

func TestVerifyCredentials(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u1", Username: "alice", Password: "s3cret"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec, ok, err := s.VerifyCredentials(ctx, "alice", "s3cret")
	if err != nil || !ok {
		t.Fatalf("expected valid credentials, ok=%v err=%v", ok, err)
	}
	if rec.UserID != "u1" {
		t.Fatalf("unexpected user id %q", rec.UserID)
	}

	if _, ok, err := s.VerifyCredentials(ctx, "alice", "wrong"); err != nil || ok {
		t.Fatalf("expected wrong password to fail, ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.VerifyCredentials(ctx, "nobody", "s3cret"); err != nil || ok {
		t.Fatalf("expected unknown user to fail, ok=%v err=%v", ok, err)
	}
}

func TestAuthRecordCascadesWithUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateAuthRecord(ctx, NewAuthRecord{UserID: "u1", Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.db.Exec("DELETE FROM users WHERE user_id = ?", "u1").Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	exists, err := s.UsernameExists(ctx, "alice")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatalf("expected auth record to be removed with its user")
	}
}
