// Package client は境界サービスに対するクライアント側のデータアクセス層を提供する。
// リモートストアの前段となるインプロセスの読み取りキャッシュと、
// 楽観的更新＋非同期永続化（失敗時はサーバー状態で再同期）の
// ライトバック経路を含む。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/ikitai/internal/model"
)

// StoreClient は境界サービスへのアクセスインターフェース。
// キャッシュはこのインターフェース経由でのみリモートと通信する。
type StoreClient interface {
	// Load はカテゴリのコレクションを取得する。
	Load(ctx context.Context, category model.Category) (*model.Collection, error)
	// Save はカテゴリのコレクション全体を保存する。
	Save(ctx context.Context, category model.Category, col *model.Collection) error
}

// APIClient は境界サービスのHTTP実装。
type APIClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewAPIClient はAPIClientの新しいインスタンスを生成する。
// baseURLには境界サービスのルートURL（例: http://localhost:8080）を指定する。
func NewAPIClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *APIClient {
	return &APIClient{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// Load はGET /api/loadでカテゴリのコレクションを取得する。
func (c *APIClient) Load(ctx context.Context, category model.Category) (*model.Collection, error) {
	reqURL := fmt.Sprintf("%s/api/load?category=%s", c.baseURL, url.QueryEscape(string(category)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loadリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("loadがステータス %d を返しました: %s", resp.StatusCode, string(body))
	}

	var col model.Collection
	if err := json.NewDecoder(resp.Body).Decode(&col); err != nil {
		return nil, fmt.Errorf("loadレスポンスのパースに失敗しました: %w", err)
	}
	if col.Items == nil {
		col.Items = []model.Item{}
	}

	return &col, nil
}

// saveRequest は保存リクエストのボディ。境界サービスの契約に一致する。
type saveRequest struct {
	Category string       `json:"category"`
	Data     []model.Item `json:"data"`
}

// saveResponse は保存レスポンス。
type saveResponse struct {
	Success     bool `json:"success"`
	SheetsSaved bool `json:"sheetsSaved"`
}

// Save はPOST /api/saveでカテゴリのコレクション全体を保存する。
// 差分ではなく常にコレクション全体を送信する。
func (c *APIClient) Save(ctx context.Context, category model.Category, col *model.Collection) error {
	body, err := json.Marshal(saveRequest{
		Category: string(category),
		Data:     col.Items,
	})
	if err != nil {
		return fmt.Errorf("リクエストボディのシリアライズに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/save", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("saveリクエストに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("saveがステータス %d を返しました: %s", resp.StatusCode, string(respBody))
	}

	var result saveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("saveレスポンスのパースに失敗しました: %w", err)
	}
	if !result.SheetsSaved {
		c.logger.Info("Sheetsミラーには反映されませんでした",
			slog.String("category", string(category)),
		)
	}

	return nil
}
