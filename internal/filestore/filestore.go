// Package filestore はカテゴリごとのJSONドキュメントによる
// ファイルベースの永続化を提供する。
//
// 各カテゴリはデータディレクトリ配下の <category>.json に1:1で対応し、
// ドキュメントは { "items": [...] } の形式を持つ。
// 書き込みはドキュメント全体の上書きで、部分更新やマージは行わない。
// ファイルロックは行わないため、同一カテゴリへの並行書き込みは
// 後勝ち（last write wins）となる。
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hitoshi/ikitai/internal/model"
)

// ErrNotFound はカテゴリのドキュメントが存在しない場合に返される。
var ErrNotFound = errors.New("collection document not found")

// Store はファイルベースのアイテムストア。
type Store struct {
	dataDir string
	logger  *slog.Logger
}

// New はStoreの新しいインスタンスを生成する。
func New(dataDir string, logger *slog.Logger) *Store {
	return &Store{
		dataDir: dataDir,
		logger:  logger,
	}
}

// path はカテゴリに対応するドキュメントのパスを返す。
func (s *Store) path(category model.Category) string {
	return filepath.Join(s.dataDir, string(category)+".json")
}

// Read はカテゴリのコレクションを読み込む。
// ドキュメントが存在しない場合はErrNotFoundを返す。
// 読み込み時のスキーマ検証は行わないため、不正なドキュメントは
// パースエラーとしてそのまま伝播する。
func (s *Store) Read(category model.Category) (*model.Collection, error) {
	data, err := os.ReadFile(s.path(category))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", category, ErrNotFound)
		}
		return nil, fmt.Errorf("ドキュメントの読み込みに失敗しました: %w", err)
	}

	var col model.Collection
	if err := json.Unmarshal(data, &col); err != nil {
		return nil, fmt.Errorf("ドキュメントのパースに失敗しました (%s): %w", category, err)
	}
	if col.Items == nil {
		col.Items = []model.Item{}
	}

	return &col, nil
}

// Write はカテゴリのコレクションをドキュメント全体の上書きで保存する。
// データディレクトリが存在しない場合は作成する。
func (s *Store) Write(category model.Category, col *model.Collection) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("データディレクトリの作成に失敗しました: %w", err)
	}

	data, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return fmt.Errorf("ドキュメントのシリアライズに失敗しました: %w", err)
	}

	if err := os.WriteFile(s.path(category), data, 0o644); err != nil {
		return fmt.Errorf("ドキュメントの書き込みに失敗しました (%s): %w", category, err)
	}

	s.logger.Info("コレクションを保存しました",
		slog.String("category", string(category)),
		slog.Int("item_count", len(col.Items)),
	)
	return nil
}
