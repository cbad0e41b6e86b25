// Package store はload/save境界サービスのコアロジックを提供する。
// 読み込みはSheetsミラー優先・ファイルストアへのフォールバック、
// 書き込みはSheetsミラーへのベストエフォート反映とファイルストアへの
// 無条件書き込みを行う。
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/ikitai/internal/filestore"
	"github.com/hitoshi/ikitai/internal/model"
)

// FileStore はファイルベースのアイテムストアのインターフェース。
type FileStore interface {
	// Read はカテゴリのコレクションを読み込む。
	// ドキュメントが存在しない場合はfilestore.ErrNotFoundを返す。
	Read(category model.Category) (*model.Collection, error)
	// Write はカテゴリのコレクションをドキュメント全体の上書きで保存する。
	Write(category model.Category, col *model.Collection) error
}

// SheetsAdapter はSheetsミラーストアのインターフェース。
type SheetsAdapter interface {
	// Configured はミラーが有効かどうかを返す。
	Configured() bool
	// Load はシートからコレクションを読み込む。失敗はエラーとして返される。
	Load(ctx context.Context, category model.Category) (*model.Collection, error)
	// Save はコレクション全体をブリッジエンドポイントに送信する。
	Save(ctx context.Context, category model.Category, col *model.Collection) error
}

// URLValidator はアイテムのリンクフィールドの検証インターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// TextSanitizer は自由テキストフィールドのサニタイズインターフェース。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// Metrics はストア境界サービスのメトリクス収集インターフェース。
type Metrics interface {
	RecordLoadSource(source string)
	RecordLoadNotFound()
	RecordSaveSuccess(mirrored bool)
	RecordSheetsFailure(op string)
}

// noopMetrics はメトリクス収集を行わないMetrics実装。
type noopMetrics struct{}

func (noopMetrics) RecordLoadSource(string)    {}
func (noopMetrics) RecordLoadNotFound()        {}
func (noopMetrics) RecordSaveSuccess(bool)     {}
func (noopMetrics) RecordSheetsFailure(string) {}

// Service はload/save境界サービスの実装。
type Service struct {
	files     FileStore
	sheets    SheetsAdapter
	guard     URLValidator
	sanitizer TextSanitizer
	metrics   Metrics
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsがnilの場合は収集を行わない実装が使用される。
func NewService(
	files FileStore,
	sheets SheetsAdapter,
	guard URLValidator,
	sanitizer TextSanitizer,
	metrics Metrics,
	logger *slog.Logger,
) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		files:     files,
		sheets:    sheets,
		guard:     guard,
		sanitizer: sanitizer,
		metrics:   metrics,
		logger:    logger,
	}
}

// Load はカテゴリのコレクションを読み込む。
// Sheetsミラーが有効な場合はまずミラーを試行し、1件以上のアイテムが
// 得られればその結果を返す。ミラーの失敗（到達不能・パース不能）は
// 空のシートとは区別してログとメトリクスに記録されるが、いずれの場合も
// ファイルストアにフォールバックする。リモートストアの失敗が呼び出し元に
// 伝播することはない。
// どちらのストアにもデータがない場合はCOLLECTION_NOT_FOUNDを返す。
func (s *Service) Load(ctx context.Context, category model.Category) (*model.Collection, error) {
	if s.sheets != nil && s.sheets.Configured() {
		col, err := s.sheets.Load(ctx, category)
		switch {
		case err != nil:
			// 到達不能や設定不備は「カテゴリが空」とは別の事象として記録する
			s.metrics.RecordSheetsFailure("load")
			s.logger.Error("Sheetsミラーの読み込みに失敗したためファイルストアにフォールバックします",
				slog.String("category", string(category)),
				slog.String("error", err.Error()),
			)
		case len(col.Items) > 0:
			s.metrics.RecordLoadSource("sheets")
			return col, nil
		default:
			s.logger.Info("Sheetsミラーが空だったためファイルストアにフォールバックします",
				slog.String("category", string(category)),
			)
		}
	}

	col, err := s.files.Read(category)
	if err != nil {
		if !errors.Is(err, filestore.ErrNotFound) {
			s.logger.Error("ファイルストアの読み込みに失敗しました",
				slog.String("category", string(category)),
				slog.String("error", err.Error()),
			)
		}
		s.metrics.RecordLoadNotFound()
		return nil, model.NewCollectionNotFoundError(category)
	}

	s.metrics.RecordLoadSource("file")
	return col, nil
}

// Save はカテゴリのコレクションを保存する。
// 永続化前に自由テキストフィールドをサニタイズし、リンクフィールドを検証する。
// Sheetsミラーへの反映はベストエフォートであり、失敗しても呼び出しは
// 成功する（mirrored=falseとして報告される）。ファイルストアへの書き込みは
// 無条件に実行され、その失敗は呼び出し全体の失敗となる。
func (s *Service) Save(ctx context.Context, category model.Category, col *model.Collection) (mirrored bool, err error) {
	cleaned, err := s.prepare(col)
	if err != nil {
		return false, err
	}

	if s.sheets != nil && s.sheets.Configured() {
		if serr := s.sheets.Save(ctx, category, cleaned); serr != nil {
			s.metrics.RecordSheetsFailure("save")
			s.logger.Error("Sheetsミラーへの書き込みに失敗しました（ファイルストアへの保存は継続します）",
				slog.String("category", string(category)),
				slog.String("error", serr.Error()),
			)
		} else {
			mirrored = true
		}
	}

	if err := s.files.Write(category, cleaned); err != nil {
		return mirrored, fmt.Errorf("ファイルストアへの書き込みに失敗しました: %w", err)
	}

	s.metrics.RecordSaveSuccess(mirrored)
	return mirrored, nil
}

// prepare は保存前処理としてコレクションの複製に対して
// テキストのサニタイズとリンクの検証を行う。
func (s *Service) prepare(col *model.Collection) (*model.Collection, error) {
	cleaned := col.Clone()
	for i := range cleaned.Items {
		item := &cleaned.Items[i]
		if s.sanitizer != nil {
			item.Name = s.sanitizer.Sanitize(item.Name)
			item.Description = s.sanitizer.Sanitize(item.Description)
			item.Notes = s.sanitizer.Sanitize(item.Notes)
		}
		if s.guard != nil {
			if item.ImageURL != "" {
				if err := s.guard.ValidateURL(item.ImageURL); err != nil {
					return nil, model.NewUnsafeURLError("imageUrl", err.Error())
				}
			}
			if item.ExternalLink != "" {
				if err := s.guard.ValidateURL(item.ExternalLink); err != nil {
					return nil, model.NewUnsafeURLError("externalLink", err.Error())
				}
			}
		}
	}
	return cleaned, nil
}
