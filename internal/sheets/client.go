// Package sheets はGoogle Sheetsをミラーストアとして扱うアダプタを提供する。
// 読み込みはシートのgviz JSONエクスポート、書き込みはApps Scriptで
// デプロイされたブリッジエンドポイントへのPOSTで行う。
//
// このアダプタはベストエフォートのミラーであり、失敗しても
// ファイルストアへの書き込みをブロックしてはならない。
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/ikitai/internal/model"
)

// defaultExportBase はgvizエクスポートURLのベース。
const defaultExportBase = "https://docs.google.com/spreadsheets/d"

// ErrNotConfigured はシートIDまたはブリッジURLが未設定の場合に返される。
// このエラーは「失敗」ではなく「対象外」を意味し、呼び出し元は
// 操作をスキップしたものとして扱う。
var ErrNotConfigured = errors.New("sheets mirror is not configured")

// defaultMaxBodySize は読み込みレスポンスの上限サイズのデフォルト（5MB）。
const defaultMaxBodySize = 5 * 1024 * 1024

// Client はGoogle Sheetsミラーのクライアント。
// gvizエクスポートの読み込みとブリッジエンドポイントへの書き込みを行う。
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	sheetID     string
	bridgeURL   string
	exportBase  string // テスト用にエンドポイントを差し替え可能
	maxBodySize int64
}

// NewClient はClientの新しいインスタンスを生成する。
// sheetIDとbridgeURLの両方が空でない場合のみミラーが有効になる。
// maxBodySizeが0以下の場合はデフォルトの上限が使用される。
func NewClient(httpClient *http.Client, logger *slog.Logger, sheetID, bridgeURL string, maxBodySize int64) *Client {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &Client{
		httpClient:  httpClient,
		logger:      logger,
		sheetID:     sheetID,
		bridgeURL:   bridgeURL,
		exportBase:  defaultExportBase,
		maxBodySize: maxBodySize,
	}
}

// Configured はミラーが有効かどうかを返す。
// シートIDとブリッジURLの両方が設定されている場合のみtrueを返す。
func (c *Client) Configured() bool {
	return c.sheetID != "" && c.bridgeURL != ""
}

// --- 読み込み ---

// gvizResponse はgvizエクスポートのレスポンス構造。
type gvizResponse struct {
	Table gvizTable `json:"table"`
}

type gvizTable struct {
	Cols []gvizCol `json:"cols"`
	Rows []gvizRow `json:"rows"`
}

type gvizCol struct {
	Label string `json:"label"`
}

type gvizRow struct {
	C []*gvizCell `json:"c"`
}

type gvizCell struct {
	V any `json:"v"`
}

// Load はカテゴリ名のシートからコレクションを読み込む。
// gvizエクスポートは google.visualization.Query.setResponse(...) 形式の
// エンベロープでラップされているため、最初の「(」と最後の「)」の間を
// JSONとして取り出す。カラムラベルがフィールド名にマッピングされ、
// 未知のラベルはアイテムのExtraフィールドに収容される。
// 先頭セルが空の行は空行としてスキップされる。
// 転送・パースの失敗はエラーとして返される。空のシートの読み込み成功とは
// 区別される（呼び出し元のフォールバック判断のため）。
func (c *Client) Load(ctx context.Context, category model.Category) (*model.Collection, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	reqURL := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:json&sheet=%s",
		c.exportBase, url.PathEscape(c.sheetID), url.QueryEscape(string(category)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "Ikitai/1.0 List Tracker")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gvizエクスポートの取得に失敗しました",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gvizエクスポートがエラーステータスを返しました",
			slog.String("category", string(category)),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("gvizエクスポートがステータス %d を返しました", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	payload, err := stripEnvelope(string(body))
	if err != nil {
		return nil, err
	}

	var gviz gvizResponse
	if err := json.Unmarshal([]byte(payload), &gviz); err != nil {
		return nil, fmt.Errorf("gvizレスポンスのパースに失敗しました: %w", err)
	}

	col := c.buildCollection(category, &gviz)

	c.logger.Info("シートからコレクションを読み込みました",
		slog.String("category", string(category)),
		slog.Int("item_count", len(col.Items)),
	)
	return col, nil
}

// stripEnvelope は google.visualization.Query.setResponse(...) 形式の
// エンベロープからJSONペイロードを取り出す。
func stripEnvelope(body string) (string, error) {
	start := strings.Index(body, "(")
	end := strings.LastIndex(body, ")")
	if start < 0 || end < 0 || end <= start {
		return "", fmt.Errorf("gvizエンベロープの形式が不正です")
	}
	return body[start+1 : end], nil
}

// buildCollection はgvizテーブルからコレクションを構築する。
// カラムラベルを位置対応でフィールド名にマッピングし、
// 空でない行ごとに1アイテムを生成する。変換できない行は警告を出してスキップする。
func (c *Client) buildCollection(category model.Category, gviz *gvizResponse) *model.Collection {
	labels := make([]string, len(gviz.Table.Cols))
	for i, col := range gviz.Table.Cols {
		labels[i] = col.Label
	}

	collection := model.NewCollection()
	for _, row := range gviz.Table.Rows {
		// 先頭セルに値がない行は空行として扱う
		if len(row.C) == 0 || row.C[0] == nil || row.C[0].V == nil || row.C[0].V == "" {
			continue
		}

		fields := make(map[string]any)
		for i, cell := range row.C {
			if cell == nil || cell.V == nil || i >= len(labels) || labels[i] == "" {
				continue
			}
			fields[labels[i]] = cell.V
		}

		// ブリッジと同様に、idのない行にはランダムな識別子を補完する
		if id, ok := fields["id"].(string); !ok || id == "" {
			fields["id"] = uuid.NewString()
		}

		item, err := rowToItem(fields)
		if err != nil {
			c.logger.Warn("シートの行をアイテムに変換できませんでした",
				slog.String("category", string(category)),
				slog.Any("id", fields["id"]),
				slog.String("error", err.Error()),
			)
			continue
		}
		collection.Items = append(collection.Items, *item)
	}

	return collection
}

// rowToItem はカラムラベルをキーとするフィールドマップをItemに変換する。
// 既知フィールド以外のキーはItemのExtraに収容される。
func rowToItem(fields map[string]any) (*model.Item, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var item model.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// --- 書き込み ---

// bridgeRequest はブリッジエンドポイントへのリクエストボディ。
type bridgeRequest struct {
	Category string       `json:"category"`
	Data     []model.Item `json:"data"`
	SheetID  string       `json:"sheetId"`
}

// bridgeResponse はブリッジエンドポイントのレスポンス。
type bridgeResponse struct {
	Success bool   `json:"success"`
	Updated int    `json:"updated"`
	Added   int    `json:"added"`
	Error   string `json:"error"`
}

// Save はコレクション全体（差分ではない）をブリッジエンドポイントにPOSTする。
// ブリッジは対応するシートの検索・作成、ID欠落行への識別子の採番、
// IDによる既存行の上書きまたは末尾への追記を担当する。
func (c *Client) Save(ctx context.Context, category model.Category, col *model.Collection) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(bridgeRequest{
		Category: string(category),
		Data:     col.Items,
		SheetID:  c.sheetID,
	})
	if err != nil {
		return fmt.Errorf("リクエストボディのシリアライズに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.bridgeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Ikitai/1.0 List Tracker")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ブリッジエンドポイントの呼び出しに失敗しました",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("ブリッジエンドポイントがエラーステータスを返しました",
			slog.String("category", string(category)),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("ブリッジエンドポイントがステータス %d を返しました", resp.StatusCode)
	}

	var result bridgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("ブリッジレスポンスのパースに失敗しました: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("ブリッジが失敗を報告しました: %s", result.Error)
	}

	c.logger.Info("シートにコレクションを保存しました",
		slog.String("category", string(category)),
		slog.Int("item_count", len(col.Items)),
		slog.Int("updated", result.Updated),
		slog.Int("added", result.Added),
	)
	return nil
}
