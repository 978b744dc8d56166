package checkout

import "errors"

var (
	// 閉じたフローへの操作
	ErrClosed = errors.New("checkout is closed")
	// 今のモード・段階ではできない操作
	ErrInvalidState = errors.New("invalid checkout state")
	// 確保が切れていた（または確保に失敗した）のでフローを閉じた
	ErrHoldExpired = errors.New("your reserved items have expired, please review your cart")
	// 今のリストに無い住所を選んだ
	ErrUnknownOption = errors.New("selected option is not available")
	// 空のカートでは進めない
	ErrEmptyCart = errors.New("your cart is empty")
)

// 画面にそのまま出せる文言を持つエラー
type userMessager interface {
	UserMessage() string
}

func userMessage(err error) string {
	var um userMessager
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
