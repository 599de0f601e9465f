package usecase

import (
	"errors"
	"fmt"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
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
	// 指定IDのSweetが存在しない
	ErrSweetNotFound = errors.New("sweet not found")

	// 読み出しと書き込みの間に別の更新が入り、リトライ上限まで衝突した
	ErrConflict = errors.New("concurrent modification conflict")

	// ストアが応答しない（タイムアウト等）
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InsufficientStockError は在庫不足。残りの数量を持ち回る。
type InsufficientStockError struct {
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	ok := errors.As(err, &ise)
	return ise, ok
}
