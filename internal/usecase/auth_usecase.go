package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/validator"
)

// usecaseがリモートAPIの認証に依存する約束
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (apiclient.AuthResult, error)
	Register(ctx context.Context, in apiclient.RegisterInput) (apiclient.AuthResult, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (model.User, error)
}

// ログアウト・トークン切れで持ち物を捨てる先
type SessionResetter interface {
	Forget(sessionID string)
}

// AuthUsecase はセッション（token / user / guest_id）の保管と認証
type AuthUsecase struct {
	api      AuthAPI
	sessions repository.SessionRepository
	ttl      time.Duration
	log      *zap.Logger
	now      func() time.Time

	// このプロセスで検証済みのセッション
	mu        sync.Mutex
	validated map[string]struct{}
	resetters []SessionResetter
	expirers  []SessionResetter
}

// DI
func NewAuthUsecase(api AuthAPI, sessions repository.SessionRepository, ttl time.Duration, log *zap.Logger) *AuthUsecase {
	return &AuthUsecase{
		api:       api,
		sessions:  sessions,
		ttl:       ttl,
		log:       log,
		now:       time.Now,
		validated: map[string]struct{}{},
	}
}

// OnReset はサインアウト時に呼ぶ先を追加する（カートや住所のミラー）
func (u *AuthUsecase) OnReset(r SessionResetter) {
	u.resetters = append(u.resetters, r)
}

// OnExpire は期限切れの掃除でだけ呼ぶ先を追加する（開いているチェックアウト）
func (u *AuthUsecase) OnExpire(r SessionResetter) {
	u.expirers = append(u.expirers, r)
}

type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Open はセッションを復元する。無ければ作る。
// 復元したセッションのトークンはこのプロセスで1回だけ検証する。
func (u *AuthUsecase) Open(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID != "" {
		s, err := u.sessions.FindByID(ctx, sessionID)
		switch {
		case err == nil:
			u.validateOnce(ctx, s)
			return s, nil
		case !errors.Is(err, repository.ErrSessionNotFound):
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	s := &model.Session{
		ID:        uuid.NewString(),
		ExpiresAt: u.now().Add(u.ttl),
	}
	if err := u.sessions.Create(ctx, s); err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.markValidated(s.ID)
	return s, nil
}

// Session はIDからセッションを読み直す（検証はしない）
func (u *AuthUsecase) Session(ctx context.Context, sessionID string) (*model.Session, error) {
	s, err := u.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}

func (u *AuthUsecase) markValidated(id string) {
	u.mu.Lock()
	u.validated[id] = struct{}{}
	u.mu.Unlock()
}

func (u *AuthUsecase) validateOnce(ctx context.Context, s *model.Session) {
	u.mu.Lock()
	_, done := u.validated[s.ID]
	u.validated[s.ID] = struct{}{}
	u.mu.Unlock()

	if done || !s.IsAuthenticated() {
		return
	}

	if tokenExpired(s.Token, u.now()) {
		u.log.Info("stored token expired", zap.String("session_id", s.ID))
		u.clear(ctx, s)
		return
	}

	user, err := u.api.CurrentUser(ctx, s.Token)
	switch {
	case apiclient.IsUnauthorized(err):
		u.log.Info("stored token rejected", zap.String("session_id", s.ID))
		u.clear(ctx, s)
	case err != nil:
		// 通信エラーではログアウトさせない。次のプロセスでまた確かめる
		u.log.Warn("validate token", zap.String("session_id", s.ID), zap.Error(err))
		u.mu.Lock()
		delete(u.validated, s.ID)
		u.mu.Unlock()
	default:
		if err := s.SignIn(s.Token, user); err != nil {
			u.log.Error("refresh session user", zap.String("session_id", s.ID), zap.Error(err))
			return
		}
		if err := u.sessions.Save(ctx, s); err != nil {
			u.log.Error("save session", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
}

// tokenExpired はJWTなら exp を手元で確かめる。JWTでなければ判断しない。
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if _, ok := claims["exp"]; !ok {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), true)
}

// clear は token / user を消す。guest_id は残す。
func (u *AuthUsecase) clear(ctx context.Context, s *model.Session) {
	s.SignOut()
	if err := u.sessions.Save(ctx, s); err != nil {
		u.log.Error("save session", zap.String("session_id", s.ID), zap.Error(err))
	}
	for _, r := range u.resetters {
		r.Forget(s.ID)
	}
}

// Expire は管理画面などで401を受けたときに呼ぶ
func (u *AuthUsecase) Expire(ctx context.Context, s *model.Session) error {
	u.clear(ctx, s)
	return ErrSessionExpired
}

// Login はリモートAPIでログインしてセッションに保存する
func (u *AuthUsecase) Login(ctx context.Context, s *model.Session, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if errs := validator.Login(email, password); len(errs) > 0 {
		return model.User{}, errs
	}

	res, err := u.api.Login(ctx, email, password)
	if err != nil {
		return model.User{}, fromAPIError(err)
	}
	if err := u.signIn(ctx, s, res); err != nil {
		return model.User{}, err
	}
	return res.User, nil
}

// Register はアカウントを作ってそのままログインする
func (u *AuthUsecase) Register(ctx context.Context, s *model.Session, in RegisterInput) (model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if errs := validator.Registration(in.Name, in.Email, in.Password, in.PasswordConfirmation); len(errs) > 0 {
		return model.User{}, errs
	}

	res, err := u.api.Register(ctx, apiclient.RegisterInput{
		Name:                 in.Name,
		Email:                in.Email,
		Password:             in.Password,
		PasswordConfirmation: in.PasswordConfirmation,
	})
	if err != nil {
		return model.User{}, fromAPIError(err)
	}
	if err := u.signIn(ctx, s, res); err != nil {
		return model.User{}, err
	}
	return res.User, nil
}

func (u *AuthUsecase) signIn(ctx context.Context, s *model.Session, res apiclient.AuthResult) error {
	if err := s.SignIn(res.Token, res.User); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	s.ExpiresAt = u.now().Add(u.ttl)
	if err := u.sessions.Save(ctx, s); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	u.markValidated(s.ID)
	// ゲストのときのミラーは捨てる
	for _, r := range u.resetters {
		r.Forget(s.ID)
	}
	return nil
}

// Logout はリモートのログアウトを試してから token / user を消す
func (u *AuthUsecase) Logout(ctx context.Context, s *model.Session) error {
	if s.IsAuthenticated() {
		if err := u.api.Logout(ctx, s.Token); err != nil {
			u.log.Info("remote logout failed", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
	u.clear(ctx, s)
	return nil
}

// Me はログイン中のユーザー
func (u *AuthUsecase) Me(s *model.Session) (model.User, bool) {
	if !s.IsAuthenticated() {
		return model.User{}, false
	}
	return s.User()
}

// CleanupExpired は期限切れセッションを消す。
// 行を消したセッションはメモリ上の持ち物（検証済み・ミラー・フロー）も捨てる。
func (u *AuthUsecase) CleanupExpired(ctx context.Context) (int64, error) {
	ids, err := u.sessions.DeleteExpired(ctx, u.now())
	if err != nil {
		return 0, err
	}

	u.mu.Lock()
	for _, id := range ids {
		delete(u.validated, id)
	}
	u.mu.Unlock()

	for _, id := range ids {
		for _, r := range u.resetters {
			r.Forget(id)
		}
		for _, r := range u.expirers {
			r.Forget(id)
		}
	}

	n := int64(len(ids))
	if n > 0 {
		u.log.Info("expired sessions removed", zap.Int64("count", n))
	}
	return n, nil
}
