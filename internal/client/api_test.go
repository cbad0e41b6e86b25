package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/ikitai/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- Load のテスト ---

// TestAPIClient_Load_ParsesCollection はGET /api/loadのレスポンスがコレクションに変換されることをテストする。
func TestAPIClient_Load_ParsesCollection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/load" {
			t.Errorf("path = %q, want /api/load", r.URL.Path)
		}
		if r.URL.Query().Get("category") != "bars" {
			t.Errorf("category = %q, want bars", r.URL.Query().Get("category"))
		}
		io.WriteString(w, `{"items": [{"id": "bars-1", "name": "Bar Trench", "description": "恵比寿"}]}`)
	}))
	defer ts.Close()

	c := NewAPIClient(http.DefaultClient, testLogger(), ts.URL)
	col, err := c.Load(context.Background(), model.CategoryBars)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(col.Items) != 1 || col.Items[0].Name != "Bar Trench" {
		t.Error("レスポンスのコレクションが返されるべき")
	}
}

// TestAPIClient_Load_NullItemsNormalized はitemsがnullのレスポンスが空スライスに正規化されることをテストする。
func TestAPIClient_Load_NullItemsNormalized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"items": null}`)
	}))
	defer ts.Close()

	c := NewAPIClient(http.DefaultClient, testLogger(), ts.URL)
	col, err := c.Load(context.Background(), model.CategoryCafes)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if col.Items == nil {
		t.Error("Itemsはnilではなく空スライスであるべき")
	}
}

// TestAPIClient_Load_NotFoundReturnsError は404レスポンスがエラーとして返ることをテストする。
func TestAPIClient_Load_NotFoundReturnsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"code": "COLLECTION_NOT_FOUND"}`)
	}))
	defer ts.Close()

	c := NewAPIClient(http.DefaultClient, testLogger(), ts.URL)
	if _, err := c.Load(context.Background(), model.CategoryShows); err == nil {
		t.Fatal("404レスポンスはエラーが返されるべき")
	}
}

// --- Save のテスト ---

// TestAPIClient_Save_PostsWholeCollection はコレクション全体が契約どおりのボディでPOSTされることをテストする。
func TestAPIClient_Save_PostsWholeCollection(t *testing.T) {
	var received saveRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/save" {
			t.Errorf("path = %q, want /api/save", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(saveResponse{Success: true, SheetsSaved: true})
	}))
	defer ts.Close()

	c := NewAPIClient(http.DefaultClient, testLogger(), ts.URL)
	col := &model.Collection{Items: []model.Item{
		{ID: "movies-1", Name: "七人の侍", Description: "黒澤明"},
		{ID: "movies-2", Name: "生きる", Description: "黒澤明"},
	}}

	if err := c.Save(context.Background(), model.CategoryMovies, col); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if received.Category != "movies" {
		t.Errorf("category = %q, want movies", received.Category)
	}
	if len(received.Data) != 2 {
		t.Errorf("data = %d件, want 差分ではなく全2件", len(received.Data))
	}
}

// TestAPIClient_Save_ServerErrorReturnsError は5xxレスポンスがエラーとして返ることをテストする。
func TestAPIClient_Save_ServerErrorReturnsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewAPIClient(http.DefaultClient, testLogger(), ts.URL)
	if err := c.Save(context.Background(), model.CategoryMovies, model.NewCollection()); err == nil {
		t.Fatal("5xxレスポンスはエラーが返されるべき")
	}
}

// TestAPIClient_Save_MirrorNotSavedIsNotAnError はsheetsSaved=falseでも呼び出しが成功することをテストする。
func TestAPIClient_Save_MirrorNotSavedIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(saveResponse{Success: true, SheetsSaved: false})
	}))
	defer ts.Close()

	c := NewAPIClient(http.DefaultClient, testLogger(), ts.URL)
	if err := c.Save(context.Background(), model.CategoryMovies, model.NewCollection()); err != nil {
		t.Fatalf("ミラー未反映は失敗として扱われるべきではない: %v", err)
	}
}
