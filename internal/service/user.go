package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/steemit/agora/internal/auth"
	"github.com/steemit/agora/internal/errs"
	"github.com/steemit/agora/internal/models"
	"github.com/steemit/agora/internal/outbox"
	"github.com/steemit/agora/pkg/logging"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)
	walletPattern   = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)
)

// RegisterInput is a new account
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Wallet   string
}

// ProfileInput holds the editable profile fields
type ProfileInput struct {
	DisplayName string
	Bio         string
	AvatarURL   string
}

// UserService handles accounts and sessions
type UserService struct {
	users    UserStore
	sessions SessionStore
	issuer   *auth.Issuer
	cost     int
	logger   *zap.Logger
}

// NewUserService creates a user service. sessions may be nil when Redis is disabled.
func NewUserService(users UserStore, sessions SessionStore, issuer *auth.Issuer) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		issuer:   issuer,
		cost:     bcrypt.DefaultCost,
		logger:   logging.WithComponent("users"),
	}
}

// Register creates an account. A linked wallet queues an SBT mint.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if !usernamePattern.MatchString(username) {
		return nil, errs.E(errs.Invalid, "username must be 3-32 lowercase letters, digits or underscores")
	}
	if !strings.Contains(email, "@") || len(email) > 255 {
		return nil, errs.E(errs.Invalid, "invalid email address")
	}
	if len(in.Password) < 8 || len(in.Password) > 72 {
		return nil, errs.E(errs.Invalid, "password must be 8-72 characters")
	}
	if in.Wallet != "" && !walletPattern.MatchString(in.Wallet) {
		return nil, errs.E(errs.Invalid, "invalid wallet address")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, internal(err, "hash password")
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  username,
	}
	if in.Wallet != "" {
		user.WalletAddress = sql.NullString{String: in.Wallet, Valid: true}
	}

	if err := s.users.Create(ctx, user, outbox.NewMintEvent(user)); err != nil {
		if isDuplicate(err) {
			return nil, errs.E(errs.Conflict, "username or email already taken")
		}
		return nil, internal(err, "create user")
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.Bool("wallet", in.Wallet != ""))
	return user, nil
}

// Login checks credentials and opens a new session, replacing any earlier one
func (s *UserService) Login(ctx context.Context, username, password string) (*auth.Pair, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, nil, internal(err, "load user")
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, errs.E(errs.Unauthenticated, "invalid username or password")
	}

	pair, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh exchanges a refresh token for a new pair
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*auth.Pair, error) {
	_, claims, err := s.issuer.Refresh(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, errs.E(errs.Unauthenticated, "refresh token expired")
		}
		return nil, errs.E(errs.Unauthenticated, "invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, internal(err, "load user")
	}
	if user == nil {
		return nil, errs.E(errs.Unauthenticated, "account no longer exists")
	}
	return s.openSession(ctx, user)
}

func (s *UserService) openSession(ctx context.Context, user *models.User) (*auth.Pair, error) {
	pair, err := s.issuer.Issue(user.ID, user.Wallet())
	if err != nil {
		return nil, internal(err, "issue token")
	}
	if s.sessions != nil {
		if err := ignoreCacheOff(s.sessions.SaveSession(ctx, user.ID, pair.AccessToken)); err != nil {
			return nil, internal(err, "store session")
		}
	}
	return pair, nil
}

// Logout ends the user's session
func (s *UserService) Logout(ctx context.Context, userID int64) error {
	if s.sessions == nil {
		return nil
	}
	return internal(ignoreCacheOff(s.sessions.DeleteSession(ctx, userID)), "delete session")
}

// Get returns a user's profile
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err, "load user")
	}
	if user == nil {
		return nil, errs.E(errs.NotFound, "user not found")
	}
	return user, nil
}

// UpdateProfile edits the caller's profile
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*models.User, error) {
	if len(in.DisplayName) > 64 {
		return nil, errs.E(errs.Invalid, "display name must be at most 64 characters")
	}
	if len(in.Bio) > 500 {
		return nil, errs.E(errs.Invalid, "bio must be at most 500 characters")
	}
	if len(in.AvatarURL) > 1024 {
		return nil, errs.E(errs.Invalid, "avatar url is too long")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.DisplayName = strings.TrimSpace(in.DisplayName)
	user.Bio = strings.TrimSpace(in.Bio)
	user.AvatarURL = strings.TrimSpace(in.AvatarURL)
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, internal(err, "update profile")
	}
	return user, nil
}
