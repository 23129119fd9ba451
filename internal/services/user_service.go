package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/ecofinds/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	Register(ctx context.Context, input RegisterInput) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, input ProfileInput) (models.User, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
}

// UserService provides business logic for user management.
type UserService struct {
	db     *sql.DB
	events EventServiceProvider
	cost   int
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events, cost: bcrypt.DefaultCost, now: time.Now}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, email, username, created_at FROM users WHERE id = ?", id)

	var user models.User
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	user.CreatedAt = fromUnixNano(createdAt)
	return user, nil
}

// getUserByEmail retrieves a single user by their email, including the password hash.
func (s *UserService) getUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, email, username, password_hash, created_at FROM users WHERE email = ?", email)

	var user models.User
	var createdAt int64
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return models.User{}, err
	}
	user.CreatedAt = fromUnixNano(createdAt)
	return user, nil
}

// Register creates a new user, hashing their password. Emails are unique
// after trimming and lower-casing.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	if verr := check(input); verr != nil {
		return models.User{}, verr
	}

	if _, err := s.getUserByEmail(ctx, input.Email); err == nil {
		return models.User{}, fmt.Errorf("email %s: %w", input.Email, ErrDuplicate)
	} else if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.NewUser(input.Email, input.Username, hash, s.now())
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, username, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Email, user.Username, user.PasswordHash, unixNano(user.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("email %s: %w", input.Email, ErrDuplicate)
		}
		return models.User{}, err
	}

	recordEvent(ctx, s.events, models.EventUserRegister, user.ID, "Account created.", user.ID)

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.getUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile changes a user's display name and email. Blank fields keep
// their current value; a new email must not belong to anyone else.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input ProfileInput) (models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = normalizeEmail(input.Email)
	if verr := check(input); verr != nil {
		return models.User{}, verr
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	if input.Username != "" {
		user.Username = input.Username
	}
	if input.Email != "" && input.Email != user.Email {
		if _, err := s.getUserByEmail(ctx, input.Email); err == nil {
			return models.User{}, fmt.Errorf("email %s: %w", input.Email, ErrDuplicate)
		} else if !errors.Is(err, ErrNotFound) {
			return models.User{}, err
		}
		user.Email = input.Email
	}

	_, err = s.db.ExecContext(ctx, "UPDATE users SET username = ?, email = ? WHERE id = ?", user.Username, user.Email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("email %s: %w", input.Email, ErrDuplicate)
		}
		return models.User{}, err
	}

	recordEvent(ctx, s.events, models.EventUserUpdate, id, "Profile updated.", id)
	return user, nil
}

// ChangePassword verifies the current password, then hashes and stores a new one.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if verr := check(passwordInput{Password: newPassword}); verr != nil {
		return verr
	}

	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	newHash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", newHash, id); err != nil {
		return err
	}

	recordEvent(ctx, s.events, models.EventPasswordChange, id, "Password changed.", id)
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", (*ValidationError)(nil).add("password", "must be at most 72 bytes")
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
