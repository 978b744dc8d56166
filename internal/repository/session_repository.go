package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
)

// セッションが見つからない（期限切れを含む）
var ErrSessionNotFound = errors.New("session not found")

// ブラウザごとのセッションの保存・取得
type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error

	//期限切れは ErrSessionNotFound
	FindByID(ctx context.Context, id string) (*model.Session, error)

	//token / user / guest_id を上書き
	Save(ctx context.Context, s *model.Session) error

	Delete(ctx context.Context, id string) error

	//期限切れを掃除。消したIDを返す
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
}
