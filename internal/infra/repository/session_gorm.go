package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type sessionGormRepository struct {
	db *gorm.DB //DB接続（GORM）
}

// GORM実装
func NewSessionGormRepository(db *gorm.DB) repo.SessionRepository {
	return &sessionGormRepository{db: db}
}

func (r *sessionGormRepository) Create(ctx context.Context, s *model.Session) error {
	//タイムアウトやキャンセルをDB処理に伝える
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return err
	}
	return nil
}

// 期限内のセッションを1件検索します。
func (r *sessionGormRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session

	err := r.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, time.Now()).
		First(&s).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrSessionNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *sessionGormRepository) Save(ctx context.Context, s *model.Session) error {
	result := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"token":      s.Token,
			"user_json":  s.UserJSON,
			"guest_id":   s.GuestID,
			"expires_at": s.ExpiresAt,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	// 更新件数が0なら削除済み
	if result.RowsAffected == 0 {
		return repo.ErrSessionNotFound
	}
	return nil
}

func (r *sessionGormRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Session{}).Error; err != nil {
		return err
	}
	return nil
}

// メモリ上の持ち物も捨てられるように、消したIDを RETURNING で受け取る
func (r *sessionGormRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	var deleted []model.Session

	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("expires_at <= ?", now).
		Delete(&deleted).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(deleted))
	for _, s := range deleted {
		ids = append(ids, s.ID)
	}
	return ids, nil
}
