// Package auth issues and verifies session tokens.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/steemit/agora/pkg/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	subjectAccess  = "access"
	subjectRefresh = "refresh"
)

// Claims carry the session identity: the numeric user id and the linked wallet
type Claims struct {
	UserID int64  `json:"user_id"`
	Wallet string `json:"wallet,omitempty"`
	jwt.RegisteredClaims
}

// Pair is an access token and the refresh token that renews it
type Pair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Issuer signs and parses HS256 tokens
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer creates an issuer from auth configuration
func NewIssuer(cfg *config.AuthConfig) *Issuer {
	accessTTL, refreshTTL := cfg.AccessTTL, cfg.RefreshTTL
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &Issuer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Issue signs a new token pair for the user
func (i *Issuer) Issue(userID int64, wallet string) (*Pair, error) {
	now := i.now()

	access, err := i.sign(userID, wallet, subjectAccess, now, i.accessTTL, i.accessSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(userID, wallet, subjectRefresh, now, i.refreshTTL, i.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(i.accessTTL),
	}, nil
}

func (i *Issuer) sign(userID int64, wallet, subject string, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Wallet: wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   subject,
		},
	})
	return token.SignedString(secret)
}

// Parse verifies an access token
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	return i.parse(tokenStr, i.accessSecret, subjectAccess)
}

// Refresh verifies a refresh token and issues a new pair for the same user
func (i *Issuer) Refresh(refreshToken string) (*Pair, *Claims, error) {
	claims, err := i.parse(refreshToken, i.refreshSecret, subjectRefresh)
	if err != nil {
		return nil, nil, err
	}
	pair, err := i.Issue(claims.UserID, claims.Wallet)
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

func (i *Issuer) parse(tokenStr string, secret []byte, subject string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject != subject || claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
