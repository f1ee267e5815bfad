// Package services contains the server-side business logic. This file
// implements SessionService, the manager that owns the credential
// lifecycle: login, registration, refresh rotation, and revocation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/avetrovs/folioauth/internal/common"
	"github.com/avetrovs/folioauth/internal/dbx"
	"github.com/avetrovs/folioauth/internal/logging"
	"github.com/avetrovs/folioauth/internal/server/auth"
	"github.com/avetrovs/folioauth/internal/server/config"
	"github.com/avetrovs/folioauth/internal/server/models"
	"github.com/avetrovs/folioauth/internal/server/repositories/repomanager"
)

const (
	defaultPortfolioName        = "Main Portfolio"
	defaultPortfolioDescription = "Default investment portfolio"
	defaultBaseCurrency         = "USD"
)

// dummyPasswordHash is a bcrypt hash compared against when login hits an
// unknown email, so the timing matches the wrong-password path.
var dummyPasswordHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// TokenPair bundles a short-lived access token and a long-lived refresh
// token, plus the access token's absolute expiry.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// UserSummary is the caller-facing projection of a user returned alongside
// a token pair.
type UserSummary struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	BaseCurrency string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// AuthResult is returned by Login, Register, and Refresh.
type AuthResult struct {
	TokenPair
	User UserSummary
}

// RegisterRequest carries the inputs of Register. BaseCurrency defaults to
// USD when empty.
type RegisterRequest struct {
	Username     string
	Email        string
	Password     string
	FirstName    string
	LastName     string
	BaseCurrency string
}

// SessionInfo describes one refresh record of a user for auditing. Expired
// records stay listed until they are revoked, on purpose.
type SessionInfo struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	Expired   bool
}

// SessionService orchestrates the signer and the repositories. All
// cross-request state lives in the database; the service itself holds no
// mutable state and is safe for concurrent use.
type SessionService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	signer     *auth.Signer
	refreshTTL time.Duration
	logger     logging.Logger
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, signer *auth.Signer, cfg *config.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:         db,
		repos:      m,
		signer:     signer,
		refreshTTL: cfg.RefreshTokenValidityDuration,
		logger:     logger,
	}
}

// Login verifies the email/password pair and issues a fresh credential
// pair. Unknown email and wrong password collapse into
// common.ErrInvalidCredentials with comparable latency.
func (s *SessionService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	repo := s.repos.Users(s.db)

	user, err := repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Burn a comparable bcrypt verification so the two failure
			// modes cannot be told apart by timing.
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.fault(ctx, "looking up user by email", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}

	now := time.Now()
	if err := repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, s.fault(ctx, "updating last login", err)
	}
	user.LastLoginAt = &now

	pair, err := s.issuePair(ctx, user, s.db)
	if err != nil {
		return nil, err
	}
	return s.authResult(user, pair), nil
}

// Register creates a user with a hashed password, creates the default
// portfolio, and issues the first credential pair — all in one transaction.
// Username collisions are case-sensitive, email collisions are not.
func (s *SessionService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	currency := req.BaseCurrency
	if currency == "" {
		currency = defaultBaseCurrency
	}

	exists, err := s.repos.Users(s.db).ExistsByEmailOrUsername(ctx, req.Email, req.Username)
	if err != nil {
		return nil, s.fault(ctx, "checking existing users", err)
	}
	if exists {
		return nil, common.ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, s.fault(ctx, "hashing password", err)
	}

	var (
		user *models.User
		pair *TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repos.Users(tx).Create(ctx, &models.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hash),
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			BaseCurrency: currency,
			IsActive:     true,
		})
		if err != nil {
			if errors.Is(err, common.ErrConflict) {
				// Lost a race with a concurrent registration; the unique
				// indexes are the authority, the pre-check is advisory.
				return common.ErrAlreadyExists
			}
			return s.fault(ctx, "creating user", err)
		}
		user = created

		if err := s.repos.Portfolios(tx).Create(ctx, &models.Portfolio{
			UserID:       user.ID,
			Name:         defaultPortfolioName,
			Description:  defaultPortfolioDescription,
			BaseCurrency: currency,
		}); err != nil {
			return s.fault(ctx, "creating default portfolio", err)
		}

		var issueErr error
		pair, issueErr = s.issuePair(ctx, user, tx)
		return issueErr
	})
	if err != nil {
		return nil, err
	}
	return s.authResult(user, pair), nil
}

// Refresh rotates a refresh token: the presented record is revoked and its
// successor issued as one atomic unit. When two requests race on the same
// token, the conditional revoke lets exactly one through; the loser gets
// common.ErrInvalidOrExpiredToken.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	rec, err := s.repos.RefreshTokens(s.db).FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Debug(ctx, "refresh token not found")
			return nil, common.ErrInvalidOrExpiredToken
		}
		return nil, s.fault(ctx, "looking up refresh token", err)
	}

	now := time.Now()
	if !rec.Active(now) {
		s.logger.Debug(ctx, "refresh token inactive",
			"revoked", rec.Revoked(), "expired", rec.Expired(now))
		return nil, common.ErrInvalidOrExpiredToken
	}

	var (
		user *models.User
		pair *TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		changed, err := s.repos.RefreshTokens(tx).Revoke(ctx, rec.ID, now)
		if err != nil {
			return s.fault(ctx, "revoking refresh token", err)
		}
		if !changed {
			// Already revoked between read and write: a concurrent
			// rotation or revoke-all won. Same answer as not found.
			return common.ErrInvalidOrExpiredToken
		}

		u, err := s.repos.Users(tx).FindByID(ctx, rec.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidOrExpiredToken
			}
			return s.fault(ctx, "looking up token owner", err)
		}
		if !u.IsActive {
			return common.ErrInvalidOrExpiredToken
		}
		user = u

		var issueErr error
		pair, issueErr = s.issuePair(ctx, user, tx)
		return issueErr
	})
	if err != nil {
		return nil, err
	}
	return s.authResult(user, pair), nil
}

// Revoke invalidates a single refresh token. It reports whether a record
// existed; revoking an already-revoked record is a successful no-op.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) (bool, error) {
	repo := s.repos.RefreshTokens(s.db)

	rec, err := repo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, s.fault(ctx, "looking up refresh token", err)
	}

	if _, err := repo.Revoke(ctx, rec.ID, time.Now()); err != nil {
		return false, s.fault(ctx, "revoking refresh token", err)
	}
	return true, nil
}

// RevokeAll revokes every active refresh token of the user in a single
// statement ("log out everywhere"). Rotations racing with it lose at write
// time because their conditional revoke sees no unrevoked row.
func (s *SessionService) RevokeAll(ctx context.Context, userID int64) (bool, error) {
	n, err := s.repos.RefreshTokens(s.db).RevokeAllForUser(ctx, userID, time.Now())
	if err != nil {
		return false, s.fault(ctx, "revoking user tokens", err)
	}
	s.logger.Info(ctx, "revoked all refresh tokens", "user_id", userID, "count", n)
	return true, nil
}

// ActiveSessions lists the user's unrevoked refresh records, flagging the
// ones that have already expired.
func (s *SessionService) ActiveSessions(ctx context.Context, userID int64) ([]SessionInfo, error) {
	records, err := s.repos.RefreshTokens(s.db).FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, s.fault(ctx, "listing refresh tokens", err)
	}

	now := time.Now()
	sessions := make([]SessionInfo, 0, len(records))
	for _, rec := range records {
		sessions = append(sessions, SessionInfo{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
			Expired:   rec.Expired(now),
		})
	}
	return sessions, nil
}

// issuePair is the single choke point through which every credential pair
// is minted: one access token, one opaque refresh secret, one stored
// refresh record with expiry = now + refresh TTL.
func (s *SessionService) issuePair(ctx context.Context, user *models.User, db dbx.DBTX) (*TokenPair, error) {
	access, expiresAt, err := s.signer.Mint(user)
	if err != nil {
		return nil, s.fault(ctx, "minting access token", err)
	}

	secret, err := s.signer.NewOpaqueSecret()
	if err != nil {
		return nil, s.fault(ctx, "generating refresh secret", err)
	}

	rec := &models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     secret,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.repos.RefreshTokens(db).Create(ctx, rec); err != nil {
		return nil, s.fault(ctx, "storing refresh token", err)
	}

	return &TokenPair{
		AccessToken:     access,
		RefreshToken:    secret,
		AccessExpiresAt: expiresAt,
	}, nil
}

// fault logs an unexpected storage or subsystem failure and returns it
// wrapped in ErrStorageUnavailable, keeping the external error set closed
// without masking operational problems as auth failures.
func (s *SessionService) fault(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "session subsystem failure", "op", op, "err", err.Error())
	return fmt.Errorf("%s: %w", op, common.ErrStorageUnavailable)
}

func (s *SessionService) authResult(user *models.User, pair *TokenPair) *AuthResult {
	return &AuthResult{
		TokenPair: *pair,
		User: UserSummary{
			ID:           user.ID,
			Username:     user.Username,
			Email:        user.Email,
			FirstName:    user.FirstName,
			LastName:     user.LastName,
			BaseCurrency: user.BaseCurrency,
			CreatedAt:    user.CreatedAt,
			LastLoginAt:  user.LastLoginAt,
		},
	}
}
