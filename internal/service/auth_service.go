package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mbrekalo/trellis/internal/domain"
	"github.com/mbrekalo/trellis/internal/repository"
	"golang.org/x/crypto/argon2"
)

var (
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidCreds  = errors.New("invalid email or password")
)

type AuthService struct {
	users     repository.UserRepository
	orgs      repository.OrganizationRepository
	spaces    repository.SpaceRepository
	jwtSecret []byte
}

func NewAuthService(
	users repository.UserRepository,
	orgs repository.OrganizationRepository,
	spaces repository.SpaceRepository,
	jwtSecret string,
) *AuthService {
	return &AuthService{
		users:     users,
		orgs:      orgs,
		spaces:    spaces,
		jwtSecret: []byte(jwtSecret),
	}
}

type RegisterInput struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	Password     string `json:"password"`
	Organization string `json:"organization"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// Register creates the user, attaches them to the named organization
// (creating it on first use), and bootstraps their personal space. The
// personal space comes with its General Area so the new user is resolvable
// immediately.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existing, err = s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	org, err := s.orgs.GetByName(ctx, input.Organization)
	if err != nil {
		return nil, err
	}
	if org == nil {
		org = &domain.Organization{
			ID:        uuid.New(),
			Name:      input.Organization,
			CreatedAt: time.Now(),
		}
		if err := s.orgs.Create(ctx, org); err != nil {
			return nil, fmt.Errorf("creating organization: %w", err)
		}
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		Email:          input.Email,
		Username:       input.Username,
		DisplayName:    input.DisplayName,
		PasswordHash:   hash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if err := s.createPersonalSpace(ctx, user, now); err != nil {
		return nil, err
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) createPersonalSpace(ctx context.Context, user *domain.User, now time.Time) error {
	slug := slugify(user.Username)
	space := &domain.Space{
		ID:        uuid.New(),
		Name:      user.DisplayName,
		Slug:      slug,
		SpaceType: domain.SpaceTypePersonal,
		OwnerID:   user.ID,
		CreatedAt: now,
	}
	general := GeneralAreaFor(space.ID, user.ID, now)
	if err := s.spaces.Create(ctx, space, general); err != nil {
		return fmt.Errorf("creating personal space: %w", err)
	}
	return nil
}

func (s *AuthService) generateToken(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
