package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/parking-lot-reservation/internal/repository"
)

func TestSignUpChecksInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "taken@example.com")
	before, err := f.users.GetByEmail(ctx, "taken@example.com")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   SignUpInput
		want error
	}{
		{"missing name", SignUpInput{Email: "a@example.com", Password: "short", Confirm: "x"}, ErrMissingFields},
		{"seven chars", SignUpInput{Email: "seven@example.com", Name: "S", Password: "1234567", Confirm: "1234567"}, ErrPasswordTooShort},
		{"short before exists", SignUpInput{Email: "taken@example.com", Name: "T", Password: "short", Confirm: "short"}, ErrPasswordTooShort},
		{"exists before mismatch", SignUpInput{Email: "TAKEN@example.com", Name: "T", Password: "password1", Confirm: "password2"}, repository.ErrEmailExists},
		{"exists with valid password", SignUpInput{Email: "taken@example.com", Name: "Other", Password: "password9", Confirm: "password9"}, repository.ErrEmailExists},
		{"mismatch", SignUpInput{Email: "new@example.com", Name: "N", Password: "password1", Confirm: "password2"}, ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.accounts.SignUp(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	// rejected sign-ups leave the existing account untouched
	after, err := f.users.GetByEmail(ctx, "taken@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if after.ID != before.ID || after.Name != before.Name || after.PasswordHash != before.PasswordHash ||
		after.IsAdmin != before.IsAdmin || !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("existing account changed: before %+v after %+v", before, after)
	}
	if _, err := f.users.GetByEmail(ctx, "seven@example.com"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("short password created an account: %v", err)
	}

	eight, err := f.accounts.SignUp(ctx, SignUpInput{Email: "eight@example.com", Name: "E", Password: "12345678", Confirm: "12345678"})
	if err != nil {
		t.Fatalf("eight character password: %v", err)
	}
	if _, err := f.accounts.Authenticate(ctx, "eight@example.com", "12345678"); err != nil {
		t.Fatalf("login with eight character password: %v", err)
	}
	if eight.IsAdmin {
		t.Fatal("new account must not be admin")
	}

	u, err := f.accounts.SignUp(ctx, SignUpInput{Email: " New@Example.com ", Name: " Nina ", Password: "password1", Confirm: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "new@example.com" || u.Name != "Nina" || u.IsAdmin || u.PasswordHash == "password1" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice@example.com")

	if _, err := f.accounts.Authenticate(ctx, "", "x"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("empty email: %v", err)
	}
	if _, err := f.accounts.Authenticate(ctx, "ghost@example.com", "password1"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Fatalf("unknown account: %v", err)
	}
	if _, err := f.accounts.Authenticate(ctx, "alice@example.com", "wrong-pass"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("wrong password: %v", err)
	}
	got, err := f.accounts.Authenticate(ctx, "ALICE@example.com", "password1")
	if err != nil || got.ID != u.ID {
		t.Fatalf("login: %+v %v", got, err)
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice@example.com")

	tests := []struct {
		name string
		in   ProfileInput
		want error
	}{
		{"missing", ProfileInput{Name: "A", Current: "password1"}, ErrMissingFields},
		{"wrong current", ProfileInput{Name: "A", Current: "nope", Password: "newpassword", Confirm: "newpassword"}, ErrIncorrectPassword},
		{"short", ProfileInput{Name: "A", Current: "password1", Password: "short", Confirm: "short"}, ErrPasswordTooShort},
		{"mismatch", ProfileInput{Name: "A", Current: "password1", Password: "newpassword", Confirm: "newpassw0rd"}, ErrPasswordMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.accounts.UpdateProfile(ctx, u.ID, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.accounts.UpdateProfile(ctx, u.ID, ProfileInput{Name: "Alicia", Current: "password1", Password: "newpassword", Confirm: "newpassword"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.accounts.Authenticate(ctx, "alice@example.com", "password1"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("old password still works: %v", err)
	}
	got, err := f.accounts.Authenticate(ctx, "alice@example.com", "newpassword")
	if err != nil || got.Name != "Alicia" {
		t.Fatalf("new credentials: %+v %v", got, err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.accounts.EnsureAdmin(ctx, "admin@nicmar.ac.in", "nicmar2024", "NICMAR Admin")
	if err != nil || !admin.IsAdmin {
		t.Fatalf("create admin: %+v %v", admin, err)
	}
	if err := f.users.SetAdmin(ctx, admin.ID, false); err != nil {
		t.Fatal(err)
	}
	again, err := f.accounts.EnsureAdmin(ctx, "admin@nicmar.ac.in", "other-password", "Other")
	if err != nil || again.ID != admin.ID || !again.IsAdmin {
		t.Fatalf("restore admin: %+v %v", again, err)
	}
	if _, err := f.accounts.Authenticate(ctx, "admin@nicmar.ac.in", "nicmar2024"); err != nil {
		t.Fatalf("existing admin must keep its password: %v", err)
	}
}
