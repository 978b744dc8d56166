package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storefront/internal/apiclient"
	"storefront/internal/domain/model"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

type forgetRecorder struct{ ids []string }

func (r *forgetRecorder) Forget(id string) { r.ids = append(r.ids, id) }

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "exp": exp.Unix()}).
		SignedString([]byte("remote-secret"))
	require.NoError(t, err)
	return tok
}

func newAuth(api *AuthAPIMock, sessions *SessionRepoMock) (*usecase.AuthUsecase, *forgetRecorder) {
	uc := usecase.NewAuthUsecase(api, sessions, time.Hour, zap.NewNop())
	rec := &forgetRecorder{}
	uc.OnReset(rec)
	return uc, rec
}

func TestAuthUsecase_Open_CreatesSessionWhenMissing(t *testing.T) {
	api := new(AuthAPIMock)
	sessions := newSessionRepo()
	uc, _ := newAuth(api, sessions)

	s, err := uc.Open(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, s.ID, sessions.row(s.ID).ID)

	// 知らないIDでも新しく作る
	s2, err := uc.Open(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotEqual(t, "unknown", s2.ID)
}

func TestAuthUsecase_Open_ExpiredTokenClearedWithoutRemoteCall(t *testing.T) {
	api := new(AuthAPIMock)
	stored := userSession("s1", "", model.User{ID: 1, Name: "Ana"})
	stored.Token = signedToken(t, time.Now().Add(-time.Minute))
	stored.GuestID = "g-1"
	sessions := newSessionRepo(*stored)
	uc, rec := newAuth(api, sessions)

	s, err := uc.Open(context.Background(), "s1")
	require.NoError(t, err)

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "g-1", s.GuestID)
	assert.Empty(t, sessions.row("s1").Token)
	assert.Equal(t, []string{"s1"}, rec.ids)
	api.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Open_RejectedTokenCleared(t *testing.T) {
	api := new(AuthAPIMock)
	stored := userSession("s1", "opaque-token", model.User{ID: 1})
	sessions := newSessionRepo(*stored)
	uc, _ := newAuth(api, sessions)

	api.On("CurrentUser", mock.Anything, "opaque-token").Return(model.User{}, unauthorized()).Once()

	s, err := uc.Open(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())
	_, ok := s.User()
	assert.False(t, ok)
	api.AssertExpectations(t)
}

func TestAuthUsecase_Open_ValidatesOncePerSession(t *testing.T) {
	api := new(AuthAPIMock)
	token := signedToken(t, time.Now().Add(time.Hour))
	stored := userSession("s1", token, model.User{ID: 1, Name: "old"})
	sessions := newSessionRepo(*stored)
	uc, _ := newAuth(api, sessions)

	api.On("CurrentUser", mock.Anything, token).Return(model.User{ID: 1, Name: "Ana"}, nil).Once()

	s, err := uc.Open(context.Background(), "s1")
	require.NoError(t, err)
	u, ok := uc.Me(s)
	require.True(t, ok)
	assert.Equal(t, "Ana", u.Name)

	_, err = uc.Open(context.Background(), "s1")
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "CurrentUser", 1)
}

func TestAuthUsecase_Open_NetworkErrorKeepsSignedIn(t *testing.T) {
	api := new(AuthAPIMock)
	stored := userSession("s1", "tok", model.User{ID: 1})
	sessions := newSessionRepo(*stored)
	uc, rec := newAuth(api, sessions)

	netErr := &apiclient.APIError{Status: 0, Message: "unreachable"}
	api.On("CurrentUser", mock.Anything, "tok").Return(model.User{}, netErr).Once()
	api.On("CurrentUser", mock.Anything, "tok").Return(model.User{ID: 1}, nil).Once()

	s, err := uc.Open(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Empty(t, rec.ids)

	// 次の復元でもう一度確かめる
	_, err = uc.Open(context.Background(), "s1")
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "CurrentUser", 2)
}

func TestAuthUsecase_Login_ValidationErrors(t *testing.T) {
	api := new(AuthAPIMock)
	uc, _ := newAuth(api, newSessionRepo())

	_, err := uc.Login(context.Background(), guestSession("s1", ""), "not-an-email", "")
	require.Error(t, err)

	var errs validator.Errors
	require.True(t, errors.As(err, &errs))
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	api.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthUsecase_Login_SignsInAndResetsMirrors(t *testing.T) {
	api := new(AuthAPIMock)
	s := guestSession("s1", "g-1")
	sessions := newSessionRepo(*s)
	uc, rec := newAuth(api, sessions)

	user := model.User{ID: 5, Name: "Ana", Email: "ana@example.com"}
	api.On("Login", mock.Anything, "ana@example.com", "secret123").
		Return(apiclient.AuthResult{User: user, Token: "tok-5"}, nil)

	got, err := uc.Login(context.Background(), s, " ana@example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	row := sessions.row("s1")
	assert.Equal(t, "tok-5", row.Token)
	assert.Equal(t, "g-1", row.GuestID)
	assert.Equal(t, []string{"s1"}, rec.ids)
}

func TestAuthUsecase_Login_RemoteErrorMessage(t *testing.T) {
	api := new(AuthAPIMock)
	uc, _ := newAuth(api, newSessionRepo())

	api.On("Login", mock.Anything, "ana@example.com", "wrongpass").
		Return(apiclient.AuthResult{}, &apiclient.APIError{Status: 422, Message: "These credentials do not match our records."})

	_, err := uc.Login(context.Background(), guestSession("s1", ""), "ana@example.com", "wrongpass")
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 422, he.Status)
	assert.Equal(t, "These credentials do not match our records.", he.Message)
}

func TestAuthUsecase_Register_ValidatesConfirmation(t *testing.T) {
	api := new(AuthAPIMock)
	uc, _ := newAuth(api, newSessionRepo())

	_, err := uc.Register(context.Background(), guestSession("s1", ""), usecase.RegisterInput{
		Name:                 "Ana",
		Email:                "ana@example.com",
		Password:             "secret123",
		PasswordConfirmation: "secret124",
	})
	var errs validator.Errors
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, "Passwords do not match", errs["password_confirmation"])
}

func TestAuthUsecase_Logout_KeepsGuestIDWhenRemoteFails(t *testing.T) {
	api := new(AuthAPIMock)
	s := userSession("s1", "tok", model.User{ID: 1})
	s.GuestID = "g-1"
	sessions := newSessionRepo(*s)
	uc, _ := newAuth(api, sessions)

	api.On("Logout", mock.Anything, "tok").Return(errors.New("boom"))

	require.NoError(t, uc.Logout(context.Background(), s))
	row := sessions.row("s1")
	assert.Empty(t, row.Token)
	assert.Empty(t, row.UserJSON)
	assert.Equal(t, "g-1", row.GuestID)
}

func TestAuthUsecase_Expire(t *testing.T) {
	api := new(AuthAPIMock)
	s := userSession("s1", "tok", model.User{ID: 1, Role: model.RoleAdmin})
	sessions := newSessionRepo(*s)
	uc, _ := newAuth(api, sessions)

	err := uc.Expire(context.Background(), s)
	assert.ErrorIs(t, err, usecase.ErrSessionExpired)
	assert.Empty(t, sessions.row("s1").Token)
}

func TestAuthUsecase_Session_NotFound(t *testing.T) {
	uc, _ := newAuth(new(AuthAPIMock), newSessionRepo())
	_, err := uc.Session(context.Background(), "missing")
	assert.ErrorIs(t, err, usecase.ErrSessionExpired)
}

func TestAuthUsecase_Open_LogsSaveFailureAfterValidation(t *testing.T) {
	api := new(AuthAPIMock)
	token := signedToken(t, time.Now().Add(time.Hour))
	stored := userSession("s1", token, model.User{ID: 1, Name: "old"})
	sessions := newSessionRepo(*stored)
	sessions.saveErr = errors.New("db down")

	core, logs := observer.New(zap.InfoLevel)
	uc := usecase.NewAuthUsecase(api, sessions, time.Hour, zap.New(core))
	api.On("CurrentUser", mock.Anything, token).Return(model.User{ID: 1, Name: "Ana"}, nil).Once()

	s, err := uc.Open(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())

	entries := logs.FilterMessage("save session").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "s1", entries[0].ContextMap()["session_id"])
}

func TestAuthUsecase_CleanupExpired_ForgetsInMemoryState(t *testing.T) {
	api := new(AuthAPIMock)
	sessions := newSessionRepo()
	uc, rec := newAuth(api, sessions)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := uc.Open(ctx, "")
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}
	require.Equal(t, 3, uc.ValidatedCount())

	sessions.expire(ids[0])
	sessions.expire(ids[1])

	n, err := uc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, sessions.count())
	assert.Equal(t, 1, uc.ValidatedCount())
	assert.ElementsMatch(t, ids[:2], rec.ids)

	// 2回目は何も消さない
	n, err = uc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, rec.ids, 2)
}

func TestAuthUsecase_CleanupExpired_DBErrorKeepsState(t *testing.T) {
	api := new(AuthAPIMock)
	sessions := newSessionRepo()
	uc, rec := newAuth(api, sessions)

	_, err := uc.Open(context.Background(), "")
	require.NoError(t, err)
	sessions.deleteErr = errors.New("db down")

	_, err = uc.CleanupExpired(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, uc.ValidatedCount())
	assert.Empty(t, rec.ids)
}
