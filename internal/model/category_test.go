package model

import (
	"testing"
)

// --- Categories のテスト ---

// TestCategories_ReturnsAllSixInFixedOrder は全6カテゴリが固定順で返ることをテストする。
func TestCategories_ReturnsAllSixInFixedOrder(t *testing.T) {
	got := Categories()
	want := []Category{
		CategoryRestaurants,
		CategoryBars,
		CategoryCafes,
		CategoryMovies,
		CategoryShows,
		CategoryDateIdeas,
	}

	if len(got) != len(want) {
		t.Fatalf("カテゴリ数 = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Categories()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestCategories_ReturnsCopy は返されたスライスを変更しても内部状態に影響しないことをテストする。
func TestCategories_ReturnsCopy(t *testing.T) {
	first := Categories()
	first[0] = Category("mutated")

	second := Categories()
	if second[0] != CategoryRestaurants {
		t.Error("Categories() は呼び出しごとにコピーを返すべき")
	}
}

// --- Valid のテスト ---

// TestCategory_Valid_KnownCategories は既知カテゴリがすべて有効と判定されることをテストする。
func TestCategory_Valid_KnownCategories(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("%q は有効なカテゴリと判定されるべき", c)
		}
	}
}

// TestCategory_Valid_UnknownCategory は未知の値が無効と判定されることをテストする。
func TestCategory_Valid_UnknownCategory(t *testing.T) {
	if Category("books").Valid() {
		t.Error("books は無効なカテゴリと判定されるべき")
	}
	if Category("").Valid() {
		t.Error("空文字列は無効なカテゴリと判定されるべき")
	}
}

// --- ParseCategory のテスト ---

// TestParseCategory_ValidValue は有効な値がそのままCategoryに変換されることをテストする。
func TestParseCategory_ValidValue(t *testing.T) {
	c, err := ParseCategory("date-ideas")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c != CategoryDateIdeas {
		t.Errorf("ParseCategory = %q, want %q", c, CategoryDateIdeas)
	}
}

// TestParseCategory_Empty は空文字列でCATEGORY_REQUIREDが返ることをテストする。
func TestParseCategory_Empty(t *testing.T) {
	_, err := ParseCategory("")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != ErrCodeCategoryRequired {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeCategoryRequired)
	}
}

// TestParseCategory_Unknown は未知の値でINVALID_CATEGORYが返ることをテストする。
func TestParseCategory_Unknown(t *testing.T) {
	_, err := ParseCategory("games")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Code != ErrCodeInvalidCategory {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeInvalidCategory)
	}
	if apiErr.Category != "validation" {
		t.Errorf("Category = %q, want validation", apiErr.Category)
	}
}

// TestParseCategory_CaseSensitive はカテゴリ名の大文字が受け入れられないことをテストする。
func TestParseCategory_CaseSensitive(t *testing.T) {
	if _, err := ParseCategory("Restaurants"); err == nil {
		t.Error("カテゴリ名は小文字のみ受け入れられるべき")
	}
}

// --- Info のテスト ---

// TestCategory_Info_HasDisplayMetadata は各カテゴリに表示用メタデータが定義されていることをテストする。
func TestCategory_Info_HasDisplayMetadata(t *testing.T) {
	for _, c := range Categories() {
		info := c.Info()
		if info.ID != c {
			t.Errorf("%q のInfo().ID = %q, want %q", c, info.ID, c)
		}
		if info.Name == "" {
			t.Errorf("%q のInfo().Name が空", c)
		}
		if info.Icon == "" {
			t.Errorf("%q のInfo().Icon が空", c)
		}
	}
}
