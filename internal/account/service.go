// Package account implements the storefront's simulated account flow:
// registration, login and profile updates persisted through the shared
// key/value store. There is no real identity provider behind it.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sleepoutside/storefront/internal/kvstore"
)

// User is the externally visible account shape. Password material never
// leaves the package.
type User struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Newsletter bool      `json:"newsletter,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// userRecord is the persisted shape, User plus the password hash.
type userRecord struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// CreateUserDto represents the data transfer object for registration.
type CreateUserDto struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name"  validate:"required"`
	Email      string `json:"email"      validate:"required,email"`
	Phone      string `json:"phone"      validate:"omitempty"`
	Password   string `json:"password"   validate:"required,min=8"`
	Newsletter bool   `json:"newsletter"`
}

// UpdateProfileDto represents the data transfer object for profile updates.
type UpdateProfileDto struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Newsletter *bool   `json:"newsletter,omitempty"`
}

// Service manages user accounts persisted under a single key/value entry.
type Service struct {
	kv     kvstore.Store
	key    string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewService creates an account Service persisted under the given storage key.
func NewService(kv kvstore.Store, key string, logger *slog.Logger) *Service {
	return &Service{
		kv:     kv,
		key:    key,
		logger: logger.With("component", "account"),
		now:    time.Now,
	}
}

// Register creates a new account and returns the user with an opaque session
// token. Returns ErrEmailTaken if the email is already registered.
func (s *Service) Register(ctx context.Context, dto CreateUserDto) (*User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, "", err
	}

	email := normalizeEmail(dto.Email)
	for _, u := range users {
		if normalizeEmail(u.Email) == email {
			return nil, "", ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	rec := userRecord{
		User: User{
			ID:         uuid.NewString(),
			FirstName:  dto.FirstName,
			LastName:   dto.LastName,
			Email:      dto.Email,
			Phone:      dto.Phone,
			Newsletter: dto.Newsletter,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		PasswordHash: string(hash),
	}
	users = append(users, rec)

	if err := s.save(ctx, users); err != nil {
		return nil, "", err
	}
	s.logger.Info("User registered", "user_id", rec.ID)

	user := rec.User
	return &user, newToken(), nil
}

// Login checks credentials and returns the user with a fresh session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, "", err
	}

	needle := normalizeEmail(email)
	for _, rec := range users {
		if normalizeEmail(rec.Email) != needle {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
			return nil, "", ErrInvalidCredentials
		}
		user := rec.User
		return &user, newToken(), nil
	}
	return nil, "", ErrInvalidCredentials
}

// UpdateProfile applies the non-nil fields of dto to the given user.
func (s *Service) UpdateProfile(ctx context.Context, userID string, dto UpdateProfileDto) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].ID != userID {
			continue
		}
		if dto.FirstName != nil {
			users[i].FirstName = *dto.FirstName
		}
		if dto.LastName != nil {
			users[i].LastName = *dto.LastName
		}
		if dto.Phone != nil {
			users[i].Phone = *dto.Phone
		}
		if dto.Newsletter != nil {
			users[i].Newsletter = *dto.Newsletter
		}
		users[i].UpdatedAt = s.now().UTC()

		if err := s.save(ctx, users); err != nil {
			return nil, err
		}
		user := users[i].User
		return &user, nil
	}
	return nil, ErrUserNotFound
}

// load reads the persisted user list; corrupt data degrades to empty.
func (s *Service) load(ctx context.Context) ([]userRecord, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var users []userRecord
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		s.logger.Warn("Persisted users are not parseable, starting empty", "error", err)
		return nil, nil
	}
	return users, nil
}

func (s *Service) save(ctx context.Context, users []userRecord) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("failed to serialize users: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to persist users: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newToken mints an opaque session token. There is no server-side session
// registry; the token only proves a successful register/login to the UI.
func newToken() string {
	return uuid.NewString()
}
