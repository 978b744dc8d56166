package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/apiclient"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// UserMessage は画面に出す文言
func (e *HTTPError) UserMessage() string {
	return e.Message
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

var (
	//401 ログインが必要（カート追加など）。画面は /login へ
	ErrLoginRequired = errors.New("login required")
	//401 管理画面でトークンが切れた。セッションは消してある
	ErrSessionExpired = errors.New("session expired")
	//403
	ErrForbidden = errors.New("forbidden")
	//404 チェックアウトが開いていない
	ErrNoCheckout = errors.New("no open checkout")
)

// fromAPIError はリモートAPIのエラーを画面向けに変える。
// 通信できなかったときは502。
func fromAPIError(err error) error {
	if err == nil {
		return nil
	}
	ae, ok := apiclient.AsAPIError(err)
	if !ok {
		return err
	}
	if ae.Status == 0 {
		return &HTTPError{Status: http.StatusBadGateway, Message: ae.Message}
	}
	return &HTTPError{Status: ae.Status, Message: ae.Message}
}
