package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/apiclient"
	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
)

type ProfileAPI interface {
	GetProfile(ctx context.Context, auth apiclient.Auth) (*model.Profile, error)
	SaveProfile(ctx context.Context, auth apiclient.Auth, p model.Profile) (model.Profile, error)
}

// ProfileUsecase はプロフィールのミラー（会員・ゲスト）
type ProfileUsecase struct {
	api ProfileAPI
	log *zap.Logger

	mu      sync.Mutex
	mirrors map[string]*model.Profile // session_id -> profile（nilは未登録）

	// guest_id_set を受けた後の取得（テストで待つ用）
	wg sync.WaitGroup
}

// DI
func NewProfileUsecase(api ProfileAPI, log *zap.Logger) *ProfileUsecase {
	return &ProfileUsecase{api: api, log: log, mirrors: map[string]*model.Profile{}}
}

// Subscribe は新しいゲストIDでゲストのプロフィールを取り直す
func (u *ProfileUsecase) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventGuestIDSet, u.onGuestIDSet)
}

func (u *ProfileUsecase) onGuestIDSet(e events.Envelope) {
	p, err := events.Decode[events.GuestIDSetPayload](e)
	if err != nil || e.SessionID == "" {
		return
	}

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		profile, err := u.api.GetProfile(ctx, apiclient.Auth{GuestID: p.GuestID})
		if err != nil {
			u.log.Warn("fetch guest profile", zap.String("session_id", e.SessionID), zap.Error(err))
			return
		}
		u.store(e.SessionID, profile)
	}()
}

// Wait はイベントで始まった取得が終わるのを待つ
func (u *ProfileUsecase) Wait() {
	u.wg.Wait()
}

func (u *ProfileUsecase) store(sessionID string, p *model.Profile) {
	u.mu.Lock()
	u.mirrors[sessionID] = p
	u.mu.Unlock()
}

// Forget はサインイン・サインアウト時にミラーを捨てる
func (u *ProfileUsecase) Forget(sessionID string) {
	u.mu.Lock()
	delete(u.mirrors, sessionID)
	u.mu.Unlock()
}

func authOf(s *model.Session) apiclient.Auth {
	if s.IsAuthenticated() {
		return apiclient.Auth{Token: s.Token}
	}
	return apiclient.Auth{GuestID: s.GuestID}
}

// Get はプロフィール。未登録・ゲストID無しなら nil。
func (u *ProfileUsecase) Get(ctx context.Context, s *model.Session) (*model.Profile, error) {
	if !s.IsAuthenticated() && s.GuestID == "" {
		return nil, nil
	}

	u.mu.Lock()
	p, ok := u.mirrors[s.ID]
	u.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := u.api.GetProfile(ctx, authOf(s))
	if err != nil {
		return nil, fromAPIError(err)
	}
	u.store(s.ID, p)
	return p, nil
}

// Save は保存して、応答をミラーにする
func (u *ProfileUsecase) Save(ctx context.Context, s *model.Session, p model.Profile) (model.Profile, error) {
	if !s.IsAuthenticated() && s.GuestID == "" {
		return model.Profile{}, ErrLoginRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return model.Profile{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}

	saved, err := u.api.SaveProfile(ctx, authOf(s), p)
	if err != nil {
		return model.Profile{}, fromAPIError(err)
	}
	u.store(s.ID, &saved)
	return saved, nil
}
