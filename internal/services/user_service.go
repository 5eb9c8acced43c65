package services

import (
	"context"
	"errors"
	"fmt"

	"realtime-service/internal/models"
	"realtime-service/internal/realtime"
	"realtime-service/internal/repositories/postgres"
	"realtime-service/internal/session"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository is the persistence contract the user service consumes.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

type UserService struct {
	repo     UserRepository
	sessions *session.Store
}

func NewUserService(repo UserRepository, sessions *session.Store) *UserService {
	return &UserService{repo: repo, sessions: sessions}
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{Token: token, User: user.ToResponse()}, nil
}

func (s *UserService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

// Identify implements realtime.IdentityResolver: it turns a session's user id
// into the identity attached to a websocket connection. A deleted account
// fails resolution, which terminates the handshake.
func (s *UserService) Identify(ctx context.Context, userID uint) (*realtime.Identity, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			return nil, realtime.ErrIdentityUnresolvable
		}
		return nil, err
	}
	return &realtime.Identity{ID: user.ID, Username: user.Username}, nil
}
