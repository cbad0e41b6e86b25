package client

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/hitoshi/ikitai/internal/model"
)

// Add はドラフトから新しいアイテムを作成してキャッシュに追加し、即座に返す。
// 永続化はコレクション全体の保存として非同期に実行され、失敗した場合は
// Refreshによりサーバーの正状態でキャッシュが上書きされる。
// 永続化の失敗が呼び出し元に返ることはない（楽観的更新）。
func (c *Cache) Add(category model.Category, draft model.ItemDraft) (*model.Item, error) {
	item, err := model.NewItem(category, draft, time.Now())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	e, ok := c.entries[category]
	if !ok {
		c.mu.Unlock()
		return nil, model.NewInvalidCategoryError(string(category))
	}
	e.col.Items = append(e.col.Items, *item)
	e.state = SyncStatePendingWrite
	e.pending++
	snapshot := e.col.Clone()
	c.mu.Unlock()

	c.persistAsync(category, snapshot)

	ret := item.Clone()
	return &ret, nil
}

// Update は指定IDのアイテムに部分更新をマージし、即座に返す。
// アイテムが存在しない場合は副作用なしでITEM_NOT_FOUNDを返す。
// バリデーションエラーの場合もキャッシュは変更されない。
func (c *Cache) Update(category model.Category, id string, upd model.ItemUpdate) (*model.Item, error) {
	c.mu.Lock()
	e, ok := c.entries[category]
	if !ok {
		c.mu.Unlock()
		return nil, model.NewInvalidCategoryError(string(category))
	}

	idx := e.col.IndexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, model.NewItemNotFoundError(id)
	}

	updated := e.col.Items[idx].Clone()
	if err := updated.ApplyUpdate(upd, time.Now()); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	e.col.Items[idx] = updated
	e.state = SyncStatePendingWrite
	e.pending++
	snapshot := e.col.Clone()
	c.mu.Unlock()

	c.persistAsync(category, snapshot)

	ret := updated.Clone()
	return &ret, nil
}

// Delete は指定IDのアイテムをキャッシュから取り除いて永続化する。
// アイテムが存在しない場合はコレクションを変更せずfalseを返す。
func (c *Cache) Delete(category model.Category, id string) bool {
	c.mu.Lock()
	e, ok := c.entries[category]
	if !ok {
		c.mu.Unlock()
		return false
	}

	idx := e.col.IndexOf(id)
	if idx < 0 {
		c.mu.Unlock()
		return false
	}

	e.col.Items = append(e.col.Items[:idx], e.col.Items[idx+1:]...)
	e.state = SyncStatePendingWrite
	e.pending++
	snapshot := e.col.Clone()
	c.mu.Unlock()

	c.persistAsync(category, snapshot)
	return true
}

// GetRandom はキャッシュ内のカテゴリから一様ランダムにアイテムを1つ返す。
// カテゴリにアイテムがない場合はnilを返す。
func (c *Cache) GetRandom(category model.Category) *model.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[category]
	if !ok || len(e.col.Items) == 0 {
		return nil
	}

	item := e.col.Items[rand.Intn(len(e.col.Items))].Clone()
	return &item
}

// persistAsync はスナップショットを非同期に保存する。
// 成功時: 他に実行中の保存がなければ状態をcleanに戻す。
// 失敗時: 状態をreconcilingに遷移させ、サーバーの正状態をRefreshで取り込む。
// カテゴリごとの保存は多重に実行されうるが、リモート側は後勝ちとなる。
func (c *Cache) persistAsync(category model.Category, snapshot *model.Collection) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		err := c.store.Save(context.Background(), category, snapshot)

		c.mu.Lock()
		e := c.entries[category]
		e.pending--
		if err == nil {
			if e.pending == 0 && e.state == SyncStatePendingWrite {
				e.state = SyncStateClean
			}
			c.mu.Unlock()
			return
		}
		e.state = SyncStateReconciling
		c.mu.Unlock()

		c.logger.Error("非同期永続化に失敗したためサーバー状態で再同期します",
			slog.String("category", string(category)),
			slog.String("error", err.Error()),
		)

		if rerr := c.Refresh(context.Background(), category); rerr != nil {
			c.logger.Error("再同期にも失敗しました。次回のRefreshまで楽観的状態を保持します",
				slog.String("category", string(category)),
				slog.String("error", rerr.Error()),
			)
		}
	}()
}
