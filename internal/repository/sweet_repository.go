package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"sweetshop/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")

	// 記録が読み出し後に別の書き込みで変わった（version不一致）。
	ErrVersionConflict = errors.New("version conflict")
)

// SweetChanges は部分更新の入力。nilのフィールドは触らない。
type SweetChanges struct {
	Name        *string
	Category    *model.Category
	Price       *decimal.Decimal
	Quantity    *int64
	Description *string
	ImageURL    *string
}

// 検索条件。指定済みフィールドはANDで重ねる。
type SweetQuery struct {
	Name     string
	Category model.Category
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal

	// Skip/Limit はページング用。Limit 0 は無制限。
	Skip  int
	Limit int
}

// SweetRepository は在庫レコードの永続化の約束。
// 在庫数の変更は必ず ConditionalUpdate（versionつき）を通す。
type SweetRepository interface {
	FindByID(ctx context.Context, id string) (model.Sweet, error)
	Create(ctx context.Context, s model.Sweet) (model.Sweet, error)

	// ConditionalUpdate はversionが一致するときだけ変更を適用し、
	// versionを+1して更新後のスナップショットを返す。
	// 一致しなければ ErrVersionConflict、存在しなければ ErrNotFound。
	ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, changes SweetChanges) (model.Sweet, error)

	Delete(ctx context.Context, id string) error

	// Query は新しい順で返し、条件に合う総件数も返す。
	Query(ctx context.Context, q SweetQuery) ([]model.Sweet, int64, error)
}
