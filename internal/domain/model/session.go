package model

import (
	"encoding/json"
	"time"
)

// ブラウザ1つ分の永続状態（token / user / guest_id）
type Session struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Token     string    `gorm:"type:text;not null;default:''" json:"-"`
	UserJSON  string    `gorm:"column:user_json;type:text;not null;default:''" json:"-"`
	GuestID   string    `gorm:"type:varchar(64);not null;default:'';index" json:"guest_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// IsAuthenticated はtokenを持っているか
func (s *Session) IsAuthenticated() bool {
	return s.Token != ""
}

// User は保存されたユーザーを戻す。壊れていたらfalse。
func (s *Session) User() (User, bool) {
	if s.UserJSON == "" {
		return User{}, false
	}
	var u User
	if err := json.Unmarshal([]byte(s.UserJSON), &u); err != nil {
		return User{}, false
	}
	return u, true
}

// SignIn はtokenとuserを保存する
func (s *Session) SignIn(token string, u User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	s.Token = token
	s.UserJSON = string(b)
	return nil
}

// SignOut はtokenとuserを消す。guest_idは残す。
func (s *Session) SignOut() {
	s.Token = ""
	s.UserJSON = ""
}
