package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type jwtService interface {
	GenerateToken(accountID int64, email string) (string, error)
}

// Service contains registration, login and tier management.
type Service struct {
	users Repository
	jwt   jwtService
}

type LoginResult struct {
	User        *User
	AccessToken string
}

func NewService(users Repository, jwt jwtService) *Service {
	return &Service{users: users, jwt: jwt}
}

// Register creates a new account on the free tier.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         req.Name,
		Tier:         TierFree,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if err == ErrUserNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, AccessToken: token}, nil
}

func (s *Service) Me(ctx context.Context, accountID int64) (*User, error) {
	user, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ChangeTier switches the account's subscription tier. The new ceiling
// applies on the next upload admission; existing attachments are kept
// even if they exceed the new ceiling.
func (s *Service) ChangeTier(ctx context.Context, accountID int64, tier Tier) (*User, error) {
	if !ValidTier(tier) {
		return nil, ErrUnknownTier
	}
	if err := s.users.UpdateTier(ctx, accountID, tier); err != nil {
		return nil, err
	}
	return s.Me(ctx, accountID)
}
