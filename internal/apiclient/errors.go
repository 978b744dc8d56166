package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ネットワークに届かなかったときの文言
const networkErrorMessage = "Unable to reach the server. Please check your connection and try again."

// APIError はリモートAPIのエラーを1つのメッセージにまとめたもの。
// Status 0 はネットワークエラー。
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// UserMessage は画面に出す文言
func (e *APIError) UserMessage() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}

// IsUnauthorized は401か
func IsUnauthorized(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Status == http.StatusUnauthorized
}

// IsNotFound は404か
func IsNotFound(err error) bool {
	ae, ok := AsAPIError(err)
	return ok && ae.Status == http.StatusNotFound
}

// エラー応答 {message, errors:{field:[...]}} の形
type errorBody struct {
	Message string                     `json:"message"`
	Error   string                     `json:"error"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// newAPIError は errors があれば全部つなげ、無ければ message を使う。
func newAPIError(status int, body []byte) *APIError {
	ae := &APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		ae.Fields = flattenFieldErrors(eb.Errors)
		if msg := joinFieldErrors(ae.Fields); msg != "" {
			ae.Message = msg
		} else if eb.Message != "" {
			ae.Message = eb.Message
		} else if eb.Error != "" {
			ae.Message = eb.Error
		}
	}

	if ae.Message == "" {
		ae.Message = http.StatusText(status)
	}
	if ae.Message == "" {
		ae.Message = "Request failed"
	}
	return ae
}

func newNetworkError(err error) *APIError {
	return &APIError{Status: 0, Message: networkErrorMessage, Err: err}
}

// 値は文字列か文字列配列のどちらでも受ける
func flattenFieldErrors(raw map[string]json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for k, v := range raw {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			out[k] = list
			continue
		}
		var one string
		if err := json.Unmarshal(v, &one); err == nil {
			out[k] = []string{one}
		}
	}
	return out
}

// キー順でつなぐ（表示を安定させる）
func joinFieldErrors(fields map[string][]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, m := range fields[k] {
			if m = strings.TrimSpace(m); m != "" {
				msgs = append(msgs, m)
			}
		}
	}
	return strings.Join(msgs, " ")
}
