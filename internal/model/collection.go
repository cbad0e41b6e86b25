// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Collection は1カテゴリに属するアイテムの順序付きリストを表す。
// 永続化レイアウト { "items": [...] } に対応し、挿入順が保持される。
type Collection struct {
	Items []Item `json:"items"`
}

// NewCollection は空のCollectionを返す。
// Itemsはnilではなく空スライスで初期化される（JSONで[]として出力するため）。
func NewCollection() *Collection {
	return &Collection{Items: []Item{}}
}

// Clone はCollectionのディープコピーを返す。
func (c *Collection) Clone() *Collection {
	out := &Collection{Items: make([]Item, len(c.Items))}
	for i, item := range c.Items {
		out.Items[i] = item.Clone()
	}
	return out
}

// IndexOf は指定IDのアイテムの位置を返す。見つからない場合は-1を返す。
func (c *Collection) IndexOf(id string) int {
	for i, item := range c.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// ItemByID は指定IDのアイテムを返す。見つからない場合はnilを返す。
func (c *Collection) ItemByID(id string) *Item {
	if i := c.IndexOf(id); i >= 0 {
		return &c.Items[i]
	}
	return nil
}

// FilterByRating は評価がminRating以上maxRating以下のアイテムを返す。
// 未評価のアイテムは含まれない。
func (c *Collection) FilterByRating(minRating, maxRating int) []Item {
	var out []Item
	for _, item := range c.Items {
		if item.Rating == nil {
			continue
		}
		if *item.Rating >= minRating && *item.Rating <= maxRating {
			out = append(out, item)
		}
	}
	return out
}

// FilterByCost はコストがminCost以上maxCost以下のアイテムを返す。
// コスト未設定のアイテムは含まれない。
func (c *Collection) FilterByCost(minCost, maxCost float64) []Item {
	var out []Item
	for _, item := range c.Items {
		if item.Cost == nil {
			continue
		}
		if *item.Cost >= minCost && *item.Cost <= maxCost {
			out = append(out, item)
		}
	}
	return out
}

// FilterByDate は体験日がstartからendの範囲内のアイテムを返す。
// 体験日未設定または日付として解釈できないアイテムは含まれない。
func (c *Collection) FilterByDate(start, end time.Time) []Item {
	var out []Item
	for _, item := range c.Items {
		if item.DateExperienced == "" {
			continue
		}
		d, err := time.Parse(DateLayout, item.DateExperienced)
		if err != nil {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			out = append(out, item)
		}
	}
	return out
}

// Search は名前または説明にクエリを含むアイテムを返す。大文字小文字は区別しない。
func (c *Collection) Search(query string) []Item {
	q := strings.ToLower(query)
	var out []Item
	for _, item := range c.Items {
		if strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			out = append(out, item)
		}
	}
	return out
}

// Completed は評価済み（体験済み）のアイテムを返す。
func (c *Collection) Completed() []Item {
	var out []Item
	for _, item := range c.Items {
		if item.Rating != nil {
			out = append(out, item)
		}
	}
	return out
}

// Pending は未評価（未体験）のアイテムを返す。
func (c *Collection) Pending() []Item {
	var out []Item
	for _, item := range c.Items {
		if item.Rating == nil {
			out = append(out, item)
		}
	}
	return out
}
