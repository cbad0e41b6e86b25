package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/ikitai/internal/middleware"
	"github.com/hitoshi/ikitai/internal/model"
)

// StoreServiceInterface はストアハンドラーが必要とするサービスインターフェース。
type StoreServiceInterface interface {
	// Load はカテゴリのコレクションを読み込む。
	// どのストアにもデータがない場合はCOLLECTION_NOT_FOUNDのAPIErrorを返す。
	Load(ctx context.Context, category model.Category) (*model.Collection, error)
	// Save はカテゴリのコレクションを保存し、Sheetsミラーへの反映結果を返す。
	Save(ctx context.Context, category model.Category, col *model.Collection) (mirrored bool, err error)
}

// StoreHandler はload/save境界のHTTPハンドラー。
type StoreHandler struct {
	service StoreServiceInterface
}

// NewStoreHandler はStoreHandlerを生成する。
func NewStoreHandler(service StoreServiceInterface) *StoreHandler {
	return &StoreHandler{service: service}
}

// --- リクエスト/レスポンス型 ---

// saveRequest は保存リクエストのボディ。
type saveRequest struct {
	Category string       `json:"category"`
	Data     []model.Item `json:"data"`
}

// saveResponse は保存レスポンス。
type saveResponse struct {
	Success     bool `json:"success"`
	SheetsSaved bool `json:"sheetsSaved"`
}

// Load はカテゴリのコレクションを取得する。
// GET /api/load?category=restaurants|bars|cafes|movies|shows|date-ideas
func (h *StoreHandler) Load(w http.ResponseWriter, r *http.Request) {
	category, err := model.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	col, err := h.service.Load(r.Context(), category)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(col)
}

// Save はカテゴリのコレクションを保存する。
// POST /api/save ボディ: { "category": "...", "data": [...] }
func (h *StoreHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("ボディの解析に失敗しました"))
		return
	}

	category, err := model.ParseCategory(req.Category)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if req.Data == nil {
		handleServiceError(w, model.NewInvalidRequestError("dataフィールドは必須です"))
		return
	}

	mirrored, err := h.service.Save(r.Context(), category, &model.Collection{Items: req.Data})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(saveResponse{
		Success:     true,
		SheetsSaved: mirrored,
	})
}

// Health はヘルスチェックに応答する。
// GET /health
func (h *StoreHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeCategoryRequired,
		model.ErrCodeInvalidCategory,
		model.ErrCodeInvalidRequest,
		model.ErrCodeInvalidRating,
		model.ErrCodeInvalidCost,
		model.ErrCodeNameRequired,
		model.ErrCodeUnsafeURL:
		return http.StatusBadRequest
	case model.ErrCodeCollectionNotFound, model.ErrCodeItemNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
