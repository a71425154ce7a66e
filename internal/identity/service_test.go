package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/douglasshinzato/price-tagger/internal/domain"
	"github.com/douglasshinzato/price-tagger/internal/storage/memory"
)

func testService(t *testing.T) (*Service, *memory.EmployeeRepository) {
	t.Helper()

	directory := memory.NewEmployeeRepository()

	hash, err := HashPassword("s3nh4-forte")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	directory.Put(domain.Employee{
		ID:           "emp-1",
		Name:         "Maria Souza",
		Email:        "maria@store.test",
		Role:         domain.RoleEmployee,
		PasswordHash: hash,
	})
	directory.Put(domain.Employee{
		ID:    "emp-nohash",
		Name:  "Sem Senha",
		Email: "nohash@store.test",
		Role:  domain.RoleEmployee,
	})

	tm, err := NewTokenManager(TokenConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "price-tagger",
		Audience: "price-tagger-api",
		TTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	return NewService(directory, tm, nil), directory
}

func TestSignIn(t *testing.T) {
	svc, _ := testService(t)

	session, err := svc.SignIn(context.Background(), "maria@store.test", "s3nh4-forte")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	if session.Token == "" {
		t.Error("expected a session token")
	}
	if session.Employee.ID != "emp-1" {
		t.Errorf("Employee.ID = %s, want emp-1", session.Employee.ID)
	}
	if session.Employee.PasswordHash != "" {
		t.Error("password hash must not leak into the session")
	}

	employeeID, err := svc.Authenticate(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if employeeID != "emp-1" {
		t.Errorf("Authenticate() = %s, want emp-1", employeeID)
	}
}

func TestSignIn_EmailIsCaseInsensitive(t *testing.T) {
	svc, _ := testService(t)

	if _, err := svc.SignIn(context.Background(), "  MARIA@Store.Test ", "s3nh4-forte"); err != nil {
		t.Errorf("SignIn() with mixed-case email error = %v", err)
	}
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	svc, _ := testService(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "unknown email", email: "ghost@store.test", password: "s3nh4-forte"},
		{name: "wrong password", email: "maria@store.test", password: "errada"},
		{name: "empty email", email: "", password: "s3nh4-forte"},
		{name: "empty password", email: "maria@store.test", password: ""},
		{name: "account without password hash", email: "nohash@store.test", password: "qualquer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignIn(context.Background(), tt.email, tt.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("SignIn() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestAuthenticate_BadToken(t *testing.T) {
	svc, _ := testService(t)

	if _, err := svc.Authenticate(context.Background(), "bogus"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Errorf("Authenticate() error = %v, want ErrNotAuthenticated", err)
	}
}
