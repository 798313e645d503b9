// Package store は、データの永続化機能を提供します。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/melbeans/melbeans/model"
)

// SQLiteStore はSQLiteのキーバリュースロットを使用したStoreの実装です。
// コレクションはスロットごとにJSON配列として丸ごと直列化されます。
type SQLiteStore struct {
	conn *sql.DB
}

// queryer は *sql.DB と *sql.Tx に共通するクエリ操作です。
// スロットの読み書きヘルパーをトランザクションの内外で共用するために使います。
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteStore は新しいSQLiteStoreを作成します。
func NewSQLiteStore(dataDir string, migrate func(*sql.DB) error) (*SQLiteStore, error) {
	// データディレクトリの作成（存在しない場合）
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// SQLiteデータベースファイルのパス
	dbPath := filepath.Join(dataDir, "melbeans.db")

	// SQLiteデータベースへの接続
	// 読み取り・変更・書き戻しを行うトランザクションが互いに追い越さないよう、
	// トランザクションは BEGIN IMMEDIATE で開始し、ロック競合時は待機させる
	conn, err := sql.Open("sqlite3", dbPath+"?_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	// マイグレーションの実行
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Close はデータベース接続を閉じます。
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// getSlot は指定キーのスロット値を取得します。
// 第二戻り値はスロットが存在するかどうかを示します。
func (s *SQLiteStore) getSlot(ctx context.Context, q queryer, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return value, true, nil
}

// setSlot は指定キーのスロット値を上書き保存します。
func (s *SQLiteStore) setSlot(ctx context.Context, q queryer, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO slots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	return nil
}

// deleteSlot は指定キーのスロットを削除します。存在しない場合も成功とみなします。
func (s *SQLiteStore) deleteSlot(ctx context.Context, q queryer, key string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", key, err)
	}
	return nil
}

// getVideos は動画コレクションをスロットから読み取ります。
func (s *SQLiteStore) getVideos(ctx context.Context, q queryer) ([]*model.Video, error) {
	value, ok, err := s.getSlot(ctx, q, SlotVideos)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*model.Video{}, nil
	}

	var videos []*model.Video
	if err := json.Unmarshal([]byte(value), &videos); err != nil {
		// 破損したスロットは「存在しない」と同じ扱いにする
		log.Printf("Corrupt slot %s, falling back to empty collection: %v", SlotVideos, err)
		return []*model.Video{}, nil
	}
	if videos == nil {
		videos = []*model.Video{}
	}
	return videos, nil
}

// saveVideos は動画コレクション全体をスロットに書き込みます。
func (s *SQLiteStore) saveVideos(ctx context.Context, q queryer, videos []*model.Video) error {
	if videos == nil {
		videos = []*model.Video{}
	}
	data, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("failed to encode videos: %w", err)
	}
	return s.setSlot(ctx, q, SlotVideos, string(data))
}

// GetVideos は動画コレクション全体を格納順（新しい順）で取得します。
func (s *SQLiteStore) GetVideos(ctx context.Context) ([]*model.Video, error) {
	return s.getVideos(ctx, s.conn)
}

// SaveVideos は動画コレクション全体を指定された並びで上書き保存します。
func (s *SQLiteStore) SaveVideos(ctx context.Context, videos []*model.Video) error {
	return s.saveVideos(ctx, s.conn, videos)
}

// AddVideo は動画をコレクションの先頭に追加して保存します（新しい順の不変条件）。
// 読み取りから書き戻しまでを1つのトランザクションで行います。
func (s *SQLiteStore) AddVideo(ctx context.Context, video *model.Video) error {
	// バリデーション
	if err := video.Validate(); err != nil {
		return err
	}

	// トランザクションの開始
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// トランザクションをロールバックするための遅延関数
	defer func() {
		if tx != nil {
			tx.Rollback() // 成功した場合は既にnilになっているためエラーは無視
		}
	}()

	videos, err := s.getVideos(ctx, tx)
	if err != nil {
		return err
	}
	if err := s.saveVideos(ctx, tx, append([]*model.Video{video}, videos...)); err != nil {
		return err
	}

	// トランザクションのコミット
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil // コミットが成功したのでnilにして遅延関数でのロールバックを防ぐ

	return nil
}

// DeleteVideo は指定されたIDの動画を削除します。
// 該当IDがない場合は何もしません（冪等）。
func (s *SQLiteStore) DeleteVideo(ctx context.Context, id string) error {
	// トランザクションの開始
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// トランザクションをロールバックするための遅延関数
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	videos, err := s.getVideos(ctx, tx)
	if err != nil {
		return err
	}

	filtered := videos[:0:0]
	for _, v := range videos {
		if v.ID != id {
			filtered = append(filtered, v)
		}
	}
	if len(filtered) == len(videos) {
		// 該当なし：書き込みを省略（遅延関数が読み取り専用トランザクションを破棄する）
		return nil
	}
	if err := s.saveVideos(ctx, tx, filtered); err != nil {
		return err
	}

	// トランザクションのコミット
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	return nil
}

// getIdeas はアイデアコレクションをスロットから読み取ります。
func (s *SQLiteStore) getIdeas(ctx context.Context, q queryer) ([]*model.Idea, error) {
	value, ok, err := s.getSlot(ctx, q, SlotIdeas)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*model.Idea{}, nil
	}

	var ideas []*model.Idea
	if err := json.Unmarshal([]byte(value), &ideas); err != nil {
		// 破損したスロットは「存在しない」と同じ扱いにする
		log.Printf("Corrupt slot %s, falling back to empty collection: %v", SlotIdeas, err)
		return []*model.Idea{}, nil
	}
	if ideas == nil {
		ideas = []*model.Idea{}
	}
	return ideas, nil
}

// saveIdeas はアイデアコレクション全体をスロットに書き込みます。
func (s *SQLiteStore) saveIdeas(ctx context.Context, q queryer, ideas []*model.Idea) error {
	if ideas == nil {
		ideas = []*model.Idea{}
	}
	data, err := json.Marshal(ideas)
	if err != nil {
		return fmt.Errorf("failed to encode ideas: %w", err)
	}
	return s.setSlot(ctx, q, SlotIdeas, string(data))
}

// GetIdeas はアイデアコレクション全体を格納順（新しい順）で取得します。
func (s *SQLiteStore) GetIdeas(ctx context.Context) ([]*model.Idea, error) {
	return s.getIdeas(ctx, s.conn)
}

// SaveIdeas はアイデアコレクション全体を指定された並びで上書き保存します。
func (s *SQLiteStore) SaveIdeas(ctx context.Context, ideas []*model.Idea) error {
	return s.saveIdeas(ctx, s.conn, ideas)
}

// AddIdea はアイデアをコレクションの先頭に追加して保存します（新しい順の不変条件）。
// 読み取りから書き戻しまでを1つのトランザクションで行います。
func (s *SQLiteStore) AddIdea(ctx context.Context, idea *model.Idea) error {
	// バリデーション
	if err := idea.Validate(); err != nil {
		return err
	}

	// トランザクションの開始
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// トランザクションをロールバックするための遅延関数
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	ideas, err := s.getIdeas(ctx, tx)
	if err != nil {
		return err
	}
	if err := s.saveIdeas(ctx, tx, append([]*model.Idea{idea}, ideas...)); err != nil {
		return err
	}

	// トランザクションのコミット
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	return nil
}

// UpdateIdea は指定されたIDのアイデアにパッチをマージして保存します。
// パッチで指定されていないフィールドは保持されます。該当IDが見つからない
// 場合は何もせず false を返します（エラーにはしません）。
func (s *SQLiteStore) UpdateIdea(ctx context.Context, id string, patch *model.IdeaPatch) (bool, error) {
	// トランザクションの開始
	tx, err := s.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	// トランザクションをロールバックするための遅延関数
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	ideas, err := s.getIdeas(ctx, tx)
	if err != nil {
		return false, err
	}

	found := false
	for i, idea := range ideas {
		if idea.ID == id {
			updated := idea.Apply(patch)
			if err := updated.Validate(); err != nil {
				return false, err
			}
			ideas[i] = updated
			found = true
			break
		}
	}
	if !found {
		// 該当なし：書き込みを省略（遅延関数が読み取り専用トランザクションを破棄する）
		return false, nil
	}
	if err := s.saveIdeas(ctx, tx, ideas); err != nil {
		return false, err
	}

	// トランザクションのコミット
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	return true, nil
}

// DeleteIdea は指定されたIDのアイデアを削除します。
// 該当IDがない場合は何もしません（冪等）。
func (s *SQLiteStore) DeleteIdea(ctx context.Context, id string) error {
	// トランザクションの開始
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// トランザクションをロールバックするための遅延関数
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	ideas, err := s.getIdeas(ctx, tx)
	if err != nil {
		return err
	}

	filtered := ideas[:0:0]
	for _, i := range ideas {
		if i.ID != id {
			filtered = append(filtered, i)
		}
	}
	if len(filtered) == len(ideas) {
		// 該当なし：書き込みを省略（遅延関数が読み取り専用トランザクションを破棄する）
		return nil
	}
	if err := s.saveIdeas(ctx, tx, filtered); err != nil {
		return err
	}

	// トランザクションのコミット
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	return nil
}

// IsAuthenticated は認証フラグを読み取ります。
// スロットが存在しない、または "true" 以外の値の場合は未認証です。
func (s *SQLiteStore) IsAuthenticated(ctx context.Context) (bool, error) {
	value, ok, err := s.getSlot(ctx, s.conn, SlotAuth)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

// SetAuthenticated は認証フラグを書き込みます。
func (s *SQLiteStore) SetAuthenticated(ctx context.Context, value bool) error {
	if value {
		return s.setSlot(ctx, s.conn, SlotAuth, "true")
	}
	return s.setSlot(ctx, s.conn, SlotAuth, "false")
}

// ClearAuthenticated は認証フラグを削除します。
func (s *SQLiteStore) ClearAuthenticated(ctx context.Context) error {
	return s.deleteSlot(ctx, s.conn, SlotAuth)
}
