package identity

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/douglasshinzato/price-tagger/internal/domain"
)

// Session is the result of a successful sign-in.
type Session struct {
	Token    string
	Employee domain.Employee
}

// Service authenticates employees against the directory.
type Service struct {
	directory domain.EmployeeDirectory
	tokens    *TokenManager
	logger    *log.Entry
}

// NewService builds the identity service.
func NewService(directory domain.EmployeeDirectory, tokens *TokenManager, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "identity")
	}
	return &Service{
		directory: directory,
		tokens:    tokens,
		logger:    logger,
	}
}

// SignIn checks the credentials and issues a session token. All failure
// modes collapse into ErrInvalidCredentials so callers cannot probe which
// emails exist.
func (s *Service) SignIn(_ context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, domain.ErrInvalidCredentials
	}

	employee, err := s.directory.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, domain.ErrEmployeeNotFound) {
			s.logger.WithError(err).Error("directory lookup failed during sign-in")
		}
		return Session{}, domain.ErrInvalidCredentials
	}

	if employee.PasswordHash == "" {
		return Session{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		return Session{}, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(employee.ID)
	if err != nil {
		s.logger.WithError(err).WithField("employee_id", employee.ID).Error("failed to issue token")
		return Session{}, err
	}

	s.logger.WithField("employee_id", employee.ID).Info("employee signed in")

	// Never hand the hash back to transport code.
	employee.PasswordHash = ""

	return Session{Token: token, Employee: employee}, nil
}

// Authenticate resolves a bearer token to an employee id.
func (s *Service) Authenticate(_ context.Context, token string) (string, error) {
	employeeID, err := s.tokens.Verify(token)
	if err != nil {
		return "", domain.ErrNotAuthenticated
	}
	return employeeID, nil
}

// HashPassword produces the bcrypt hash stored in the directory. Used by
// seeding and admin tooling.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
