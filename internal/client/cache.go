package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/ikitai/internal/model"
)

// SyncState はカテゴリごとのキャッシュとリモートストアの同期状態を表す。
type SyncState int

const (
	// SyncStateClean はキャッシュとリモートが一致している（とみなせる）状態。
	SyncStateClean SyncState = iota
	// SyncStatePendingWrite は楽観的更新が適用済みで、非同期永続化が完了していない状態。
	SyncStatePendingWrite
	// SyncStateReconciling は永続化に失敗し、サーバー状態での再同期を待っている状態。
	SyncStateReconciling
)

// String はSyncStateの文字列表現を返す。
func (s SyncState) String() string {
	switch s {
	case SyncStateClean:
		return "clean"
	case SyncStatePendingWrite:
		return "pending-write"
	case SyncStateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// entry はカテゴリごとのキャッシュエントリ。
type entry struct {
	col     *model.Collection
	state   SyncState
	pending int // 実行中の非同期保存数
}

// Cache はカテゴリからコレクションへのインプロセスの読み取りキャッシュ。
// 同期的な読み取りには最後に取得した値（デフォルトは空コレクション）を返し、
// 更新系の操作はキャッシュを即座に変更してから非同期に永続化する。
//
// グローバルなシングルトンではなく、明示的に所有・注入されるオブジェクトとして
// 構築する。テストでは独立したインスタンスを生成できる。
type Cache struct {
	store  StoreClient
	logger *slog.Logger

	mu      sync.Mutex
	entries map[model.Category]*entry

	wg sync.WaitGroup
}

// NewCache はCacheの新しいインスタンスを生成する。
// 全カテゴリのエントリが空コレクション・clean状態で初期化される。
func NewCache(store StoreClient, logger *slog.Logger) *Cache {
	entries := make(map[model.Category]*entry, len(model.Categories()))
	for _, c := range model.Categories() {
		entries[c] = &entry{col: model.NewCollection(), state: SyncStateClean}
	}
	return &Cache{
		store:   store,
		logger:  logger,
		entries: entries,
	}
}

// Get はカテゴリの最後に取得したコレクションを同期的に返す。
// 未取得のカテゴリには空コレクションを返す。
// 呼び出し元による変更がキャッシュに影響しないよう、複製を返す。
func (c *Cache) Get(category model.Category) *model.Collection {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[category]
	if !ok {
		return model.NewCollection()
	}
	return e.col.Clone()
}

// ItemByID はキャッシュ内の指定IDのアイテムを返す。見つからない場合はnilを返す。
func (c *Cache) ItemByID(category model.Category, id string) *model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[category]
	if !ok {
		return nil
	}
	if item := e.col.ItemByID(id); item != nil {
		cloned := item.Clone()
		return &cloned
	}
	return nil
}

// Search はキャッシュ内のカテゴリから名前・説明にクエリを含むアイテムを返す。
// 大文字小文字は区別しない。
func (c *Cache) Search(category model.Category, query string) []model.Item {
	return c.Get(category).Search(query)
}

// FilterByRating はキャッシュ内のカテゴリから評価が範囲内のアイテムを返す。
// 未評価のアイテムは含まれない。
func (c *Cache) FilterByRating(category model.Category, minRating, maxRating int) []model.Item {
	return c.Get(category).FilterByRating(minRating, maxRating)
}

// FilterByCost はキャッシュ内のカテゴリからコストが範囲内のアイテムを返す。
func (c *Cache) FilterByCost(category model.Category, minCost, maxCost float64) []model.Item {
	return c.Get(category).FilterByCost(minCost, maxCost)
}

// FilterByDate はキャッシュ内のカテゴリから体験日が期間内のアイテムを返す。
// 境界日は期間に含まれる。
func (c *Cache) FilterByDate(category model.Category, start, end time.Time) []model.Item {
	return c.Get(category).FilterByDate(start, end)
}

// Completed はキャッシュ内のカテゴリから評価済みのアイテムを返す。
func (c *Cache) Completed(category model.Category) []model.Item {
	return c.Get(category).Completed()
}

// Pending はキャッシュ内のカテゴリから未評価のアイテムを返す。
func (c *Cache) Pending(category model.Category) []model.Item {
	return c.Get(category).Pending()
}

// State はカテゴリの同期状態を返す。
func (c *Cache) State(category model.Category) SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[category]; ok {
		return e.state
	}
	return SyncStateClean
}

// Refresh は境界サービスからカテゴリのコレクションを取得し、キャッシュを置き換える。
// 取得に失敗した場合はキャッシュを変更せずエラーを返す。
func (c *Cache) Refresh(ctx context.Context, category model.Category) error {
	col, err := c.store.Load(ctx, category)
	if err != nil {
		c.logger.Warn("キャッシュの更新に失敗しました",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[category]
	if !ok {
		return nil
	}
	e.col = col
	if e.pending == 0 {
		e.state = SyncStateClean
	} else {
		e.state = SyncStatePendingWrite
	}
	return nil
}

// WarmUp は全カテゴリを順番にRefreshしてキャッシュを初期化する。
// カテゴリごとの失敗はログに記録され、そのカテゴリのキャッシュは
// デフォルトの空コレクションのまま残る。
func (c *Cache) WarmUp(ctx context.Context) {
	for _, category := range model.Categories() {
		if err := c.Refresh(ctx, category); err != nil {
			c.logger.Warn("ウォームアップに失敗したカテゴリは空のまま継続します",
				slog.String("category", string(category)),
			)
		}
	}
	c.logger.Info("キャッシュのウォームアップが完了しました")
}

// Wait は実行中の非同期永続化がすべて完了するまでブロックする。
// グレースフルシャットダウンおよびテストで使用する。
func (c *Cache) Wait() {
	c.wg.Wait()
}
