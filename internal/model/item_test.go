package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string { return &v }

// --- NewItem のテスト ---

// TestNewItem_AssignsCategoryPrefixedID はIDが <category>-<epochMillis> 形式で採番されることをテストする。
func TestNewItem_AssignsCategoryPrefixedID(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	item, err := NewItem(CategoryRestaurants, ItemDraft{Name: "Sushi Dai", Description: "築地の寿司"}, now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := fmt.Sprintf("restaurants-%d", now.UnixMilli())
	if item.ID != want {
		t.Errorf("ID = %q, want %q", item.ID, want)
	}
}

// TestNewItem_SetsTimestamps はCreatedAtとUpdatedAtが作成時刻に設定されることをテストする。
func TestNewItem_SetsTimestamps(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	item, err := NewItem(CategoryMovies, ItemDraft{Name: "七人の侍", Description: "黒澤明"}, now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !item.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", item.CreatedAt, now)
	}
	if !item.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", item.UpdatedAt, now)
	}
}

// TestNewItem_MissingName は名前が空の場合にNAME_REQUIREDが返ることをテストする。
func TestNewItem_MissingName(t *testing.T) {
	_, err := NewItem(CategoryBars, ItemDraft{Description: "説明のみ"}, time.Now())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != ErrCodeNameRequired {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeNameRequired)
	}
}

// TestNewItem_MissingDescription は説明が空の場合にエラーが返ることをテストする。
func TestNewItem_MissingDescription(t *testing.T) {
	_, err := NewItem(CategoryBars, ItemDraft{Name: "名前のみ"}, time.Now())
	if err == nil {
		t.Fatal("説明が空の場合はエラーが返されるべき")
	}
}

// TestNewItem_InvalidRating は範囲外の評価でINVALID_RATINGが返ることをテストする。
func TestNewItem_InvalidRating(t *testing.T) {
	for _, rating := range []int{-1, 6, 100} {
		_, err := NewItem(CategoryCafes, ItemDraft{
			Name: "テスト", Description: "テスト", Rating: intPtr(rating),
		}, time.Now())

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("rating=%d: expected *APIError, got %T", rating, err)
		}
		if apiErr.Code != ErrCodeInvalidRating {
			t.Errorf("rating=%d: Code = %q, want %q", rating, apiErr.Code, ErrCodeInvalidRating)
		}
	}
}

// TestNewItem_BoundaryRatings は評価0と5が受け入れられることをテストする。
func TestNewItem_BoundaryRatings(t *testing.T) {
	for _, rating := range []int{0, 5} {
		_, err := NewItem(CategoryCafes, ItemDraft{
			Name: "テスト", Description: "テスト", Rating: intPtr(rating),
		}, time.Now())
		if err != nil {
			t.Errorf("rating=%d は受け入れられるべき: %v", rating, err)
		}
	}
}

// TestNewItem_NegativeCost は負のコストでINVALID_COSTが返ることをテストする。
func TestNewItem_NegativeCost(t *testing.T) {
	_, err := NewItem(CategoryRestaurants, ItemDraft{
		Name: "テスト", Description: "テスト", Cost: floatPtr(-1),
	}, time.Now())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != ErrCodeInvalidCost {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeInvalidCost)
	}
}

// TestNewItem_ZeroCost はコスト0（無料）が受け入れられることをテストする。
func TestNewItem_ZeroCost(t *testing.T) {
	item, err := NewItem(CategoryDateIdeas, ItemDraft{
		Name: "公園散歩", Description: "無料のデート", Cost: floatPtr(0),
	}, time.Now())
	if err != nil {
		t.Fatalf("コスト0は受け入れられるべき: %v", err)
	}
	if item.Cost == nil || *item.Cost != 0 {
		t.Error("コスト0が保持されるべき")
	}
}

// TestNewItem_RatedDraftSetsDateExperienced は評価付きで作成されたアイテムに体験日が自動設定されることをテストする。
func TestNewItem_RatedDraftSetsDateExperienced(t *testing.T) {
	now := time.Date(2026, 8, 30, 23, 30, 0, 0, time.UTC)
	item, err := NewItem(CategoryMovies, ItemDraft{
		Name: "テスト", Description: "テスト", Rating: intPtr(4),
	}, now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.DateExperienced != "2026-08-30" {
		t.Errorf("DateExperienced = %q, want 2026-08-30", item.DateExperienced)
	}
}

// TestNewItem_ExplicitDateExperiencedWins はドラフトで指定した体験日が自動設定より優先されることをテストする。
func TestNewItem_ExplicitDateExperiencedWins(t *testing.T) {
	item, err := NewItem(CategoryMovies, ItemDraft{
		Name: "テスト", Description: "テスト", Rating: intPtr(4), DateExperienced: "2025-01-15",
	}, time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.DateExperienced != "2025-01-15" {
		t.Errorf("DateExperienced = %q, want 2025-01-15", item.DateExperienced)
	}
}

// --- ApplyUpdate のテスト ---

func ratedItem(t *testing.T) *Item {
	t.Helper()
	item, err := NewItem(CategoryRestaurants, ItemDraft{Name: "焼鳥屋", Description: "炭火焼"}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}
	return item
}

// TestApplyUpdate_MergesOnlyProvidedFields はnilでないフィールドのみがマージされることをテストする。
func TestApplyUpdate_MergesOnlyProvidedFields(t *testing.T) {
	item := ratedItem(t)
	origDescription := item.Description

	err := item.ApplyUpdate(ItemUpdate{Name: strPtr("新しい名前")}, time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if item.Name != "新しい名前" {
		t.Errorf("Name = %q, want 新しい名前", item.Name)
	}
	if item.Description != origDescription {
		t.Error("指定していないDescriptionは変更されるべきではない")
	}
}

// TestApplyUpdate_FirstRatingSetsDateExperienced は初回評価時に体験日が自動設定されることをテストする。
func TestApplyUpdate_FirstRatingSetsDateExperienced(t *testing.T) {
	item := ratedItem(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	if err := item.ApplyUpdate(ItemUpdate{Rating: intPtr(5)}, now); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item.DateExperienced != "2026-08-30" {
		t.Errorf("DateExperienced = %q, want 2026-08-30", item.DateExperienced)
	}
}

// TestApplyUpdate_SecondRatingKeepsDateExperienced は2回目以降の評価変更で体験日が変化しないことをテストする。
func TestApplyUpdate_SecondRatingKeepsDateExperienced(t *testing.T) {
	item := ratedItem(t)

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := item.ApplyUpdate(ItemUpdate{Rating: intPtr(3)}, first); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if err := item.ApplyUpdate(ItemUpdate{Rating: intPtr(5)}, second); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if item.DateExperienced != "2026-08-01" {
		t.Errorf("DateExperienced = %q, want 2026-08-01（初回評価時の日付を維持）", item.DateExperienced)
	}
	if *item.Rating != 5 {
		t.Errorf("Rating = %d, want 5", *item.Rating)
	}
}

// TestApplyUpdate_InvalidRatingLeavesItemUnchanged はバリデーション失敗時にアイテムが変更されないことをテストする。
func TestApplyUpdate_InvalidRatingLeavesItemUnchanged(t *testing.T) {
	item := ratedItem(t)
	before := item.Clone()

	err := item.ApplyUpdate(ItemUpdate{Name: strPtr("変更されてはいけない"), Rating: intPtr(10)}, time.Now())
	if err == nil {
		t.Fatal("範囲外の評価はエラーが返されるべき")
	}

	if item.Name != before.Name {
		t.Error("バリデーション失敗時はNameが変更されるべきではない")
	}
	if !item.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("バリデーション失敗時はUpdatedAtが変更されるべきではない")
	}
}

// TestApplyUpdate_EmptyNameRejected は名前を空文字列に更新できないことをテストする。
func TestApplyUpdate_EmptyNameRejected(t *testing.T) {
	item := ratedItem(t)
	if err := item.ApplyUpdate(ItemUpdate{Name: strPtr("")}, time.Now()); err == nil {
		t.Error("名前を空にする更新は拒否されるべき")
	}
}

// TestApplyUpdate_AdvancesUpdatedAt は更新のたびにUpdatedAtが進むことをテストする。
func TestApplyUpdate_AdvancesUpdatedAt(t *testing.T) {
	item := ratedItem(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	if err := item.ApplyUpdate(ItemUpdate{Notes: strPtr("予約済み")}, now); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !item.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", item.UpdatedAt, now)
	}
	if !item.CreatedAt.Before(item.UpdatedAt) {
		t.Error("UpdatedAtはCreatedAtより後であるべき")
	}
}

// --- JSONシリアライズのテスト ---

// TestItemJSON_FieldNames は永続化レイアウトのフィールド名でシリアライズされることをテストする。
func TestItemJSON_FieldNames(t *testing.T) {
	item, err := NewItem(CategoryCafes, ItemDraft{
		Name: "Blue Bottle", Description: "清澄白河", ImageURL: "https://example.com/img.jpg",
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"id", "name", "description", "imageUrl", "externalLink", "category", "createdAt", "updatedAt"} {
		if _, ok := m[key]; !ok {
			t.Errorf("JSONにキー %q が含まれるべき", key)
		}
	}
	// 未設定のoptionalフィールドは省略される
	if _, ok := m["rating"]; ok {
		t.Error("未評価の場合ratingは省略されるべき")
	}
}

// TestItemJSON_UnknownKeysPreserved は未知のキーがExtraに保持され、再シリアライズで失われないことをテストする。
func TestItemJSON_UnknownKeysPreserved(t *testing.T) {
	input := `{
		"id": "cafes-1700000000000",
		"name": "Glitch Coffee",
		"description": "神保町",
		"imageUrl": "",
		"externalLink": "",
		"category": "cafes",
		"createdAt": "2026-01-01T00:00:00Z",
		"updatedAt": "2026-01-01T00:00:00Z",
		"priceRange": "$$",
		"neighborhood": "Jimbocho"
	}`

	var item Item
	if err := json.Unmarshal([]byte(input), &item); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if item.Extra["priceRange"] != "$$" {
		t.Errorf("Extra[priceRange] = %v, want $$", item.Extra["priceRange"])
	}
	if item.Extra["neighborhood"] != "Jimbocho" {
		t.Errorf("Extra[neighborhood] = %v, want Jimbocho", item.Extra["neighborhood"])
	}

	out, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal of output failed: %v", err)
	}
	if m["priceRange"] != "$$" {
		t.Error("未知フィールドは再シリアライズ後もトップレベルに保持されるべき")
	}
	if m["name"] != "Glitch Coffee" {
		t.Errorf("name = %v, want Glitch Coffee", m["name"])
	}
}

// TestItemJSON_ExtraCannotShadowKnownKeys はExtraのキーが既知フィールドを上書きしないことをテストする。
func TestItemJSON_ExtraCannotShadowKnownKeys(t *testing.T) {
	item := Item{
		ID: "bars-1", Name: "本物の名前", Description: "説明", Category: CategoryBars,
		Extra: map[string]any{"name": "偽物の名前"},
	}

	out, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if m["name"] != "本物の名前" {
		t.Errorf("既知フィールドはExtraより優先されるべき: name = %v", m["name"])
	}
}

// --- Clone のテスト ---

// TestItemClone_DeepCopiesPointers はCloneがポインタフィールドを複製することをテストする。
func TestItemClone_DeepCopiesPointers(t *testing.T) {
	item := Item{
		ID: "movies-1", Name: "テスト", Rating: intPtr(3), Cost: floatPtr(1500),
		Extra: map[string]any{"director": "黒澤明"},
	}

	cp := item.Clone()
	*cp.Rating = 5
	cp.Extra["director"] = "小津安二郎"

	if *item.Rating != 3 {
		t.Error("Cloneの評価を変更しても元のアイテムに影響すべきではない")
	}
	if item.Extra["director"] != "黒澤明" {
		t.Error("CloneのExtraを変更しても元のアイテムに影響すべきではない")
	}
}
