package usecase

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
	"storefront/internal/repository"
)

// EventPublisher はイベントの配信先（events.Bus）
type EventPublisher interface {
	Publish(eventType, sessionID string, payload any)
}

// GuestUsecase はゲストIDの発行
type GuestUsecase struct {
	sessions repository.SessionRepository
	events   EventPublisher
	log      *zap.Logger
	newID    func() string

	mu sync.Mutex
}

// DI
func NewGuestUsecase(sessions repository.SessionRepository, pub EventPublisher, log *zap.Logger) *GuestUsecase {
	return &GuestUsecase{sessions: sessions, events: pub, log: log, newID: uuid.NewString}
}

// EnsureGuestID はゲストIDが無ければ1つだけ作って保存し、guest_id_set を1回だけ流す。
// あればそのまま返す。
func (u *GuestUsecase) EnsureGuestID(ctx context.Context, s *model.Session) (string, error) {
	if s.GuestID != "" {
		return s.GuestID, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	// 別のリクエストが先に作っていないか
	current, err := u.sessions.FindByID(ctx, s.ID)
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if current.GuestID != "" {
		s.GuestID = current.GuestID
		return s.GuestID, nil
	}

	current.GuestID = u.newID()
	if err := u.sessions.Save(ctx, current); err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}
	s.GuestID = current.GuestID

	u.log.Info("guest id issued", zap.String("session_id", s.ID))
	u.events.Publish(events.EventGuestIDSet, s.ID, events.GuestIDSetPayload{GuestID: s.GuestID})
	return s.GuestID, nil
}
