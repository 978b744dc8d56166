package validator

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// 入力が不正（フィールドごとの内容は Errors）
var ErrInvalidInput = errors.New("invalid input")

// パスワード最低文字数
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Errors はフィールド名 -> メッセージ。空なら問題なし。
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e[k])
	}
	return strings.Join(msgs, " ")
}

func (e Errors) Unwrap() error { return ErrInvalidInput }

// Err は空なら nil を返す
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Required は空白だけの値もエラーにする
func (e Errors) Required(field, value, label string) bool {
	if strings.TrimSpace(value) == "" {
		e[field] = label + " is required"
		return false
	}
	return true
}

// IsEmail は簡易なメール形式チェック
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Email は必須 + 形式
func (e Errors) Email(field, value string) {
	if !e.Required(field, value, "Email") {
		return
	}
	if !IsEmail(value) {
		e[field] = "Please enter a valid email address"
	}
}

// Registration はアカウント作成フォームの検証
func Registration(name, email, password, confirmation string) Errors {
	errs := Errors{}
	errs.Required("name", name, "Name")
	errs.Email("email", email)

	switch {
	case password == "":
		errs["password"] = "Password is required"
	case len(password) < MinPasswordLength:
		errs["password"] = "Password must be at least 8 characters"
	}
	if confirmation != password {
		errs["password_confirmation"] = "Passwords do not match"
	}
	return errs
}

// Login はログイン入力の検証
func Login(email, password string) Errors {
	errs := Errors{}
	errs.Email("email", email)
	if password == "" {
		errs["password"] = "Password is required"
	}
	return errs
}
