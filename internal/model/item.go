// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout はdateExperiencedに使用するカレンダー日付のフォーマット。
const DateLayout = "2006-01-02"

// Item は1つのトラッキング対象エンティティを表す。
// 評価・メモ・体験日などのメタデータを保持する。
// スプレッドシート由来の未知のカラムはExtraに保持され、
// JSONシリアライズ時にトップレベルのフィールドとして展開される。
type Item struct {
	ID              string   // カテゴリ内で一意。作成時に <category>-<epochMillis> で採番され、以後不変
	Name            string   // 必須
	Description     string   // 必須
	ImageURL        string
	ExternalLink    string
	Category        Category
	Rating          *int     // 0〜5。nilは「未体験」を表す
	Notes           string
	DateExperienced string   // カレンダー日付（YYYY-MM-DD）。初回評価時に自動設定される
	Cost            *float64 // 0以上
	CreatedAt       time.Time
	UpdatedAt       time.Time // 変更のたびに更新される。常にCreatedAt以上

	// Extra は既知フィールド以外の自由形式フィールドを保持する。
	// スプレッドシートの未知のカラムラベルがここに入る。
	Extra map[string]any
}

// itemJSON はItemのシリアライズ形式。フィールド名は永続化レイアウトに一致する。
type itemJSON struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"imageUrl"`
	ExternalLink    string    `json:"externalLink"`
	Category        Category  `json:"category"`
	Rating          *int      `json:"rating,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	DateExperienced string    `json:"dateExperienced,omitempty"`
	Cost            *float64  `json:"cost,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// knownItemKeys はItemの既知JSONキーの集合。これ以外のキーはExtraに収容される。
var knownItemKeys = map[string]struct{}{
	"id": {}, "name": {}, "description": {}, "imageUrl": {}, "externalLink": {},
	"category": {}, "rating": {}, "notes": {}, "dateExperienced": {}, "cost": {},
	"createdAt": {}, "updatedAt": {},
}

// MarshalJSON は既知フィールドとExtraをトップレベルにフラット化してシリアライズする。
// Extraのキーが既知フィールドと衝突する場合は既知フィールドが優先される。
func (i Item) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(itemJSON{
		ID:              i.ID,
		Name:            i.Name,
		Description:     i.Description,
		ImageURL:        i.ImageURL,
		ExternalLink:    i.ExternalLink,
		Category:        i.Category,
		Rating:          i.Rating,
		Notes:           i.Notes,
		DateExperienced: i.DateExperienced,
		Cost:            i.Cost,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	if len(i.Extra) == 0 {
		return base, nil
	}

	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range i.Extra {
		if _, known := knownItemKeys[k]; known {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON は既知フィールドをItemに読み込み、未知のキーをExtraに収容する。
func (i *Item) UnmarshalJSON(data []byte) error {
	var base itemJSON
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var extra map[string]any
	for k, v := range raw {
		if _, known := knownItemKeys[k]; known {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("未知フィールド %q のデコードに失敗しました: %w", k, err)
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = val
	}

	*i = Item{
		ID:              base.ID,
		Name:            base.Name,
		Description:     base.Description,
		ImageURL:        base.ImageURL,
		ExternalLink:    base.ExternalLink,
		Category:        base.Category,
		Rating:          base.Rating,
		Notes:           base.Notes,
		DateExperienced: base.DateExperienced,
		Cost:            base.Cost,
		CreatedAt:       base.CreatedAt,
		UpdatedAt:       base.UpdatedAt,
		Extra:           extra,
	}
	return nil
}

// Clone はItemのディープコピーを返す。
// ポインタフィールドとExtraマップも複製される。
func (i Item) Clone() Item {
	out := i
	if i.Rating != nil {
		r := *i.Rating
		out.Rating = &r
	}
	if i.Cost != nil {
		c := *i.Cost
		out.Cost = &c
	}
	if i.Extra != nil {
		out.Extra = make(map[string]any, len(i.Extra))
		for k, v := range i.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ItemDraft は追加操作の入力を表す。
// ID・CreatedAt・UpdatedAtは作成時に採番されるため含まれない。
type ItemDraft struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	ImageURL        string   `json:"imageUrl"`
	ExternalLink    string   `json:"externalLink"`
	Rating          *int     `json:"rating,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	DateExperienced string   `json:"dateExperienced,omitempty"`
	Cost            *float64 `json:"cost,omitempty"`
}

// ItemUpdate は部分更新の入力を表す。nilフィールドは変更しない。
type ItemUpdate struct {
	Name            *string  `json:"name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	ImageURL        *string  `json:"imageUrl,omitempty"`
	ExternalLink    *string  `json:"externalLink,omitempty"`
	Rating          *int     `json:"rating,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
	DateExperienced *string  `json:"dateExperienced,omitempty"`
	Cost            *float64 `json:"cost,omitempty"`
}

// validateRating は評価値が0〜5の範囲内であるかを検証する。
func validateRating(rating *int) error {
	if rating == nil {
		return nil
	}
	if *rating < 0 || *rating > 5 {
		return NewInvalidRatingError(*rating)
	}
	return nil
}

// validateCost はコストが0以上であるかを検証する。
func validateCost(cost *float64) error {
	if cost == nil {
		return nil
	}
	if *cost < 0 {
		return NewInvalidCostError(*cost)
	}
	return nil
}

// NewItem はドラフトから新しいItemを作成する。
// IDは <category>-<epochMillis> 形式で採番され、CreatedAt/UpdatedAtにはnowが設定される。
// 作成時点で評価が付いており体験日が未設定の場合、体験日にはnowの日付が設定される。
func NewItem(category Category, draft ItemDraft, now time.Time) (*Item, error) {
	if draft.Name == "" {
		return nil, NewNameRequiredError("名前")
	}
	if draft.Description == "" {
		return nil, NewNameRequiredError("説明")
	}
	if err := validateRating(draft.Rating); err != nil {
		return nil, err
	}
	if err := validateCost(draft.Cost); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              fmt.Sprintf("%s-%d", category, now.UnixMilli()),
		Name:            draft.Name,
		Description:     draft.Description,
		ImageURL:        draft.ImageURL,
		ExternalLink:    draft.ExternalLink,
		Category:        category,
		Rating:          draft.Rating,
		Notes:           draft.Notes,
		DateExperienced: draft.DateExperienced,
		Cost:            draft.Cost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if item.Rating != nil && item.DateExperienced == "" {
		item.DateExperienced = now.Format(DateLayout)
	}

	return item, nil
}

// ApplyUpdate は部分更新をマージし、UpdatedAtをnowに進める。
// 初めて評価が付与されるとき、体験日が未設定であればnowの日付が自動設定される。
// 2回目以降の評価変更では体験日は変化しない。
// バリデーションエラーの場合はItemを変更せずエラーを返す。
func (i *Item) ApplyUpdate(upd ItemUpdate, now time.Time) error {
	if err := validateRating(upd.Rating); err != nil {
		return err
	}
	if err := validateCost(upd.Cost); err != nil {
		return err
	}
	if upd.Name != nil && *upd.Name == "" {
		return NewNameRequiredError("名前")
	}
	if upd.Description != nil && *upd.Description == "" {
		return NewNameRequiredError("説明")
	}

	if upd.Name != nil {
		i.Name = *upd.Name
	}
	if upd.Description != nil {
		i.Description = *upd.Description
	}
	if upd.ImageURL != nil {
		i.ImageURL = *upd.ImageURL
	}
	if upd.ExternalLink != nil {
		i.ExternalLink = *upd.ExternalLink
	}
	if upd.Notes != nil {
		i.Notes = *upd.Notes
	}
	if upd.DateExperienced != nil {
		i.DateExperienced = *upd.DateExperienced
	}
	if upd.Rating != nil {
		i.Rating = upd.Rating
		if i.DateExperienced == "" {
			i.DateExperienced = now.Format(DateLayout)
		}
	}
	if upd.Cost != nil {
		i.Cost = upd.Cost
	}

	i.UpdatedAt = now
	return nil
}
