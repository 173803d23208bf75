// Package services contains the application services of the field-sales
// client: authentication, the day cycle and its auto-closer, dashboard and
// invoice reports, and the version gate.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/client"
	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/client/repositories/kv"
	"github.com/dmitrijs2005/fieldsales/internal/cryptox"
	"github.com/dmitrijs2005/fieldsales/internal/dbx"
	"github.com/dmitrijs2005/fieldsales/internal/logging"
)

const (
	SessionKey     = "@session"
	RememberKey    = "@remember"
	SessionSaltKey = "@session:salt"
)

// ErrBadCredentials is returned by Login when the API rejects the user.
var ErrBadCredentials = fmt.Errorf("%w: check your credentials", client.ErrUnauthorized)

// AuthAPI is the part of the API client the auth service needs.
type AuthAPI interface {
	Login(ctx context.Context, userName, password string) (*models.Session, error)
	SetAuthTokens(tokens *models.Tokens, onChange client.TokenChangeFunc)
}

// DayClearer drops a user's local day record on logout.
type DayClearer interface {
	Clear(ctx context.Context, userID int64) error
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate, install tokens, persist the session and the
//     remember flag in one transaction.
//   - Restore: reinstall a remembered session from local storage; returns
//     (nil, nil) when there is none.
//   - Logout: drop tokens, the stored session and the user's day record.
//   - Current: the active session or nil.
//
// Tokens refreshed by the API client are merged into the active session and
// re-saved.
type AuthService interface {
	Login(ctx context.Context, userName, password string, remember bool) (*models.Session, error)
	Restore(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
	Current() *models.Session
}

type authService struct {
	api        AuthAPI
	db         *sql.DB
	repos      kv.Manager
	days       DayClearer
	passphrase []byte
	now        func() time.Time
	log        logging.Logger

	mu       sync.RWMutex
	current  *models.Session
	remember bool
}

type AuthOption func(*authService)

// WithPassphrase encrypts the stored session with a key derived from p.
func WithPassphrase(p string) AuthOption {
	return func(a *authService) {
		if p != "" {
			a.passphrase = []byte(p)
		}
	}
}

func WithAuthLogger(l logging.Logger) AuthOption {
	return func(a *authService) { a.log = l }
}

func WithAuthNow(now func() time.Time) AuthOption {
	return func(a *authService) { a.now = now }
}

// NewAuthService constructs an AuthService bound to the API client and the
// local store.
func NewAuthService(api AuthAPI, db *sql.DB, repos kv.Manager, days DayClearer, opts ...AuthOption) AuthService {
	a := &authService{
		api:   api,
		db:    db,
		repos: repos,
		days:  days,
		now:   time.Now,
		log:   logging.Discard(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *authService) Login(ctx context.Context, userName, password string, remember bool) (*models.Session, error) {
	p, err := a.api.Login(ctx, strings.TrimSpace(userName), password)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("login error: %w", err)
	}

	now := a.now()
	sess := *p
	sess.AccessTokenExpiresAt = models.ExpiresAt(now, p.AccessTokenExpiry)
	sess.RefreshTokenExpiresAt = models.ExpiresAt(now, p.RefreshTokenExpiry)

	a.install(&sess, remember)

	if err := a.save(ctx, sess, remember); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	a.log.Info(ctx, "logged in", "user_id", sess.UserID, "remember", remember)

	out := sess
	return &out, nil
}

func (a *authService) Restore(ctx context.Context) (*models.Session, error) {
	repo := a.repos.Repo(a.db)

	rememberRaw, err := repo.Get(ctx, RememberKey)
	if err != nil {
		return nil, err
	}
	raw, err := repo.Get(ctx, SessionKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	if string(rememberRaw) != "true" {
		a.log.Debug(ctx, "stored session not remembered, discarding")
		return nil, a.clearStored(ctx)
	}

	if a.passphrase != nil {
		raw, err = a.open(ctx, repo, raw)
		if err != nil {
			a.log.Warn(ctx, "stored session cannot be decrypted", "error", err)
			return nil, nil
		}
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.Token == "" {
		a.log.Warn(ctx, "stored session unreadable, ignoring")
		return nil, nil
	}

	a.install(&sess, true)
	a.log.Info(ctx, "session restored", "user_id", sess.UserID)

	out := sess
	return &out, nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.mu.Lock()
	sess := a.current
	a.current = nil
	a.remember = false
	a.mu.Unlock()

	a.api.SetAuthTokens(nil, nil)

	if err := a.clearStored(ctx); err != nil {
		return fmt.Errorf("session clearing error: %w", err)
	}
	if sess != nil && a.days != nil {
		if err := a.days.Clear(ctx, sess.UserID); err != nil {
			return fmt.Errorf("day cycle clearing error: %w", err)
		}
	}
	return nil
}

func (a *authService) Current() *models.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return nil
	}
	out := *a.current
	return &out
}

func (a *authService) install(sess *models.Session, remember bool) {
	a.mu.Lock()
	cp := *sess
	a.current = &cp
	a.remember = remember
	a.mu.Unlock()

	tokens := sess.Tokens()
	a.api.SetAuthTokens(&tokens, a.onTokensChanged)
}

// onTokensChanged merges refreshed tokens into the active session and
// persists it.
func (a *authService) onTokensChanged(ctx context.Context, updated models.Tokens) error {
	a.mu.Lock()
	if a.current == nil {
		a.mu.Unlock()
		return nil
	}
	a.current.ApplyTokens(updated)
	sess := *a.current
	remember := a.remember
	a.mu.Unlock()

	return a.save(ctx, sess, remember)
}

func (a *authService) save(ctx context.Context, sess models.Session, remember bool) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, a.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.repos.Repo(tx)

		value := blob
		if a.passphrase != nil {
			if value, err = a.seal(ctx, repo, blob); err != nil {
				return err
			}
		}
		if err := repo.Set(ctx, SessionKey, value); err != nil {
			return err
		}
		flag := "false"
		if remember {
			flag = "true"
		}
		return repo.Set(ctx, RememberKey, []byte(flag))
	})
}

func (a *authService) clearStored(ctx context.Context) error {
	return dbx.WithTx(ctx, a.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.repos.Repo(tx)
		if err := repo.Delete(ctx, SessionKey); err != nil {
			return err
		}
		return repo.Delete(ctx, RememberKey)
	})
}

func (a *authService) seal(ctx context.Context, repo kv.Repository, plain []byte) ([]byte, error) {
	salt, err := repo.Get(ctx, SessionSaltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		salt = cryptox.NewSalt()
		if err := repo.Set(ctx, SessionSaltKey, salt); err != nil {
			return nil, err
		}
	}
	key := cryptox.DeriveKey(a.passphrase, salt)
	return cryptox.Seal(plain, key)
}

func (a *authService) open(ctx context.Context, repo kv.Repository, sealed []byte) ([]byte, error) {
	salt, err := repo.Get(ctx, SessionSaltKey)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		return nil, errors.New("session salt missing")
	}
	key := cryptox.DeriveKey(a.passphrase, salt)
	return cryptox.Open(sealed, key)
}
