package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/client"
	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/client/repositories/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeAuthAPI struct {
	session  *models.Session
	loginErr error

	lastUser string
	lastPass string

	tokens   *models.Tokens
	onChange client.TokenChangeFunc
}

func (f *fakeAuthAPI) Login(ctx context.Context, userName, password string) (*models.Session, error) {
	f.lastUser, f.lastPass = userName, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	s := *f.session
	return &s, nil
}

func (f *fakeAuthAPI) SetAuthTokens(tokens *models.Tokens, onChange client.TokenChangeFunc) {
	f.tokens = tokens
	if onChange != nil || tokens == nil {
		f.onChange = onChange
	}
}

type fakeDayClearer struct {
	cleared []int64
	err     error
}

func (f *fakeDayClearer) Clear(ctx context.Context, userID int64) error {
	f.cleared = append(f.cleared, userID)
	return f.err
}

var authNow = time.Date(2025, 1, 10, 2, 30, 0, 0, time.UTC)

func loginPayload() *models.Session {
	return &models.Session{
		Token:              "A1",
		RefreshToken:       "R1",
		AccessTokenExpiry:  900000,
		RefreshTokenExpiry: 86400000,
		UserID:             42,
		TerritoryID:        7,
		UserName:           "agent",
		PersonalName:       "Field Agent",
	}
}

type authFixture struct {
	svc  AuthService
	api  *fakeAuthAPI
	days *fakeDayClearer
	db   *sql.DB
	repo kv.Repository
}

func newAuthFixture(t *testing.T, opts ...AuthOption) *authFixture {
	t.Helper()
	f := &authFixture{
		api:  &fakeAuthAPI{session: loginPayload()},
		days: &fakeDayClearer{},
		db:   newStore(t),
	}
	f.repo = kv.SQLiteManager{}.Repo(f.db)
	opts = append([]AuthOption{WithAuthNow(func() time.Time { return authNow })}, opts...)
	f.svc = NewAuthService(f.api, f.db, kv.SQLiteManager{}, f.days, opts...)
	return f
}

func (f *authFixture) get(t *testing.T, key string) []byte {
	t.Helper()
	v, err := f.repo.Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

// ---- tests ----

func TestAuth_LoginPersistsSessionAndInstallsTokens(t *testing.T) {
	f := newAuthFixture(t)

	sess, err := f.svc.Login(context.Background(), "  agent  ", "pw", true)
	require.NoError(t, err)

	assert.Equal(t, "agent", f.api.lastUser)
	assert.Equal(t, "pw", f.api.lastPass)
	assert.Equal(t, authNow.UnixMilli()+900000, sess.AccessTokenExpiresAt)
	assert.Equal(t, authNow.UnixMilli()+86400000, sess.RefreshTokenExpiresAt)

	require.NotNil(t, f.api.tokens)
	assert.Equal(t, sess.Tokens(), *f.api.tokens)
	assert.NotNil(t, f.api.onChange)

	var stored models.Session
	require.NoError(t, json.Unmarshal(f.get(t, SessionKey), &stored))
	assert.Equal(t, *sess, stored)
	assert.Equal(t, []byte("true"), f.get(t, RememberKey))

	assert.Equal(t, sess, f.svc.Current())
}

func TestAuth_LoginWithoutExpiryLeavesTokensNonExpiring(t *testing.T) {
	f := newAuthFixture(t)
	f.api.session.AccessTokenExpiry = 0
	f.api.session.RefreshTokenExpiry = 0

	sess, err := f.svc.Login(context.Background(), "agent", "pw", false)
	require.NoError(t, err)
	assert.Zero(t, sess.AccessTokenExpiresAt)
	assert.Zero(t, sess.RefreshTokenExpiresAt)
	assert.Equal(t, []byte("false"), f.get(t, RememberKey))
}

func TestAuth_LoginRejected(t *testing.T) {
	f := newAuthFixture(t)
	f.api.loginErr = &client.APIError{Kind: client.KindUnauthorized, Message: client.MsgSessionExpired, Status: 401}

	_, err := f.svc.Login(context.Background(), "agent", "bad", true)
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "unauthorized: check your credentials", err.Error())

	assert.Nil(t, f.get(t, SessionKey))
	assert.Nil(t, f.svc.Current())
}

func TestAuth_LoginOtherError(t *testing.T) {
	f := newAuthFixture(t)
	f.api.loginErr = &client.APIError{Kind: client.KindNetwork, Message: "Network unavailable"}

	_, err := f.svc.Login(context.Background(), "agent", "pw", true)
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.ErrorContains(t, err, "login error")
}

func TestAuth_RestoreRemembered(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "agent", "pw", true)
	require.NoError(t, err)

	// new process
	api := &fakeAuthAPI{}
	svc := NewAuthService(api, f.db, kv.SQLiteManager{}, f.days)

	sess, err := svc.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, int64(42), sess.UserID)
	require.NotNil(t, api.tokens)
	assert.Equal(t, "A1", api.tokens.Token)
	assert.NotNil(t, api.onChange)
	assert.Equal(t, sess, svc.Current())
}

func TestAuth_RestoreNotRememberedDiscardsSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "agent", "pw", false)
	require.NoError(t, err)

	svc := NewAuthService(&fakeAuthAPI{}, f.db, kv.SQLiteManager{}, f.days)
	sess, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Nil(t, f.get(t, SessionKey))
	assert.Nil(t, f.get(t, RememberKey))
}

func TestAuth_RestoreNothingOrCorrupt(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.NoError(t, f.repo.Set(ctx, SessionKey, []byte(`{not json`)))
	require.NoError(t, f.repo.Set(ctx, RememberKey, []byte("true")))
	sess, err = f.svc.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Nil(t, f.api.tokens)
}

func TestAuth_RefreshedTokensAreMergedAndSaved(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "agent", "pw", true)
	require.NoError(t, err)

	updated := models.Tokens{Token: "A2", RefreshToken: "R2", AccessTokenExpiresAt: 123, RefreshTokenExpiresAt: 456}
	require.NoError(t, f.api.onChange(ctx, updated))

	cur := f.svc.Current()
	assert.Equal(t, updated, cur.Tokens())
	assert.Equal(t, int64(42), cur.UserID)

	var stored models.Session
	require.NoError(t, json.Unmarshal(f.get(t, SessionKey), &stored))
	assert.Equal(t, "A2", stored.Token)
	assert.Equal(t, "agent", stored.UserName)
}

func TestAuth_LogoutClearsEverything(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "agent", "pw", true)
	require.NoError(t, err)
	onChange := f.api.onChange

	require.NoError(t, f.svc.Logout(ctx))

	assert.Nil(t, f.api.tokens)
	assert.Nil(t, f.api.onChange)
	assert.Nil(t, f.svc.Current())
	assert.Nil(t, f.get(t, SessionKey))
	assert.Nil(t, f.get(t, RememberKey))
	assert.Equal(t, []int64{42}, f.days.cleared)

	// a refresh finishing after logout must not resurrect the session
	require.NoError(t, onChange(ctx, models.Tokens{Token: "late"}))
	assert.Nil(t, f.get(t, SessionKey))
}

func TestAuth_LogoutWithoutSessionAndDayError(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Logout(ctx))
	assert.Empty(t, f.days.cleared)

	_, err := f.svc.Login(ctx, "agent", "pw", true)
	require.NoError(t, err)
	f.days.err = errors.New("locked")
	assert.ErrorContains(t, f.svc.Logout(ctx), "day cycle clearing error: locked")
}

func TestAuth_EncryptedSession(t *testing.T) {
	f := newAuthFixture(t, WithPassphrase("s3cret"))
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "agent", "pw", true)
	require.NoError(t, err)

	blob := f.get(t, SessionKey)
	assert.False(t, json.Valid(blob), "stored session must not be plain JSON")
	assert.Len(t, f.get(t, SessionSaltKey), 16)

	same := NewAuthService(&fakeAuthAPI{}, f.db, kv.SQLiteManager{}, f.days, WithPassphrase("s3cret"))
	sess, err := same.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "agent", sess.UserName)

	wrong := NewAuthService(&fakeAuthAPI{}, f.db, kv.SQLiteManager{}, f.days, WithPassphrase("guess"))
	sess, err = wrong.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}
