// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, data, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCategoryRequired   = "CATEGORY_REQUIRED"
	ErrCodeInvalidCategory    = "INVALID_CATEGORY"
	ErrCodeCollectionNotFound = "COLLECTION_NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeInvalidCost        = "INVALID_COST"
	ErrCodeNameRequired       = "NAME_REQUIRED"
	ErrCodeItemNotFound       = "ITEM_NOT_FOUND"
	ErrCodeUnsafeURL          = "UNSAFE_URL"
)

// NewCategoryRequiredError はカテゴリ未指定エラーを生成する。
func NewCategoryRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeCategoryRequired,
		Message:  "カテゴリが指定されていません。",
		Category: "validation",
		Action:   "categoryパラメータを指定してください。",
	}
}

// NewInvalidCategoryError は未知のカテゴリエラーを生成する。
func NewInvalidCategoryError(category string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("無効なカテゴリです: %s", category),
		Category: "validation",
		Action:   "restaurants、bars、cafes、movies、shows、date-ideas のいずれかを指定してください。",
	}
}

// NewCollectionNotFoundError はカテゴリのデータがどのストアにも存在しない場合のエラーを生成する。
func NewCollectionNotFoundError(category Category) *APIError {
	return &APIError{
		Code:     ErrCodeCollectionNotFound,
		Message:  fmt.Sprintf("カテゴリのデータが見つかりません: %s", category),
		Category: "data",
		Action:   "アイテムを追加するとデータが作成されます。",
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewInvalidRatingError は評価値の範囲エラーを生成する。
func NewInvalidRatingError(rating int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  fmt.Sprintf("無効な評価値です: %d", rating),
		Category: "validation",
		Action:   "評価は0から5の整数で指定してください。",
	}
}

// NewInvalidCostError はコストの範囲エラーを生成する。
func NewInvalidCostError(cost float64) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCost,
		Message:  fmt.Sprintf("無効なコストです: %g", cost),
		Category: "validation",
		Action:   "コストは0以上の数値で指定してください。",
	}
}

// NewNameRequiredError は名前・説明の必須エラーを生成する。
func NewNameRequiredError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeNameRequired,
		Message:  fmt.Sprintf("%s は必須です。", field),
		Category: "validation",
		Action:   "名前と説明を入力してください。",
	}
}

// NewItemNotFoundError はアイテム未検出エラーを生成する。
func NewItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定されたアイテムが見つかりません: %s", itemID),
		Category: "data",
		Action:   "アイテムIDを確認してください。",
	}
}

// NewUnsafeURLError は安全でないURLエラーを生成する。
func NewUnsafeURLError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsafeURL,
		Message:  fmt.Sprintf("%s に安全でないURLが指定されました: %s", field, reason),
		Category: "validation",
		Action:   "http:// または https:// で始まる公開URLを指定してください。",
	}
}
