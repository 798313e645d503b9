// Package store は、データの永続化機能を提供します。
package store

import (
	"context"

	"github.com/melbeans/melbeans/model"
)

// 永続化スロットのキー。ブラウザ版アーカイブのローカルストレージと
// 同じレイアウトを維持しています。
const (
	SlotVideos = "mel_beans_videos"
	SlotIdeas  = "mel_beans_ideas"
	SlotAuth   = "mel_beans_auth"
)

// VideoStore は動画コレクションの保存と取得を行うインターフェースです。
type VideoStore interface {
	// GetVideos は動画コレクション全体を格納順（新しい順）で取得します。
	// スロットが存在しない、または破損している場合は空のコレクションを返します。
	GetVideos(ctx context.Context) ([]*model.Video, error)
	// SaveVideos は動画コレクション全体を指定された並びで上書き保存します。
	SaveVideos(ctx context.Context, videos []*model.Video) error
	// AddVideo は動画をコレクションの先頭に追加して保存します。
	AddVideo(ctx context.Context, video *model.Video) error
	// DeleteVideo は指定されたIDの動画を削除します。該当IDがない場合は何もしません。
	DeleteVideo(ctx context.Context, id string) error
}

// IdeaStore はアイデアコレクションの保存と取得を行うインターフェースです。
type IdeaStore interface {
	// GetIdeas はアイデアコレクション全体を格納順（新しい順）で取得します。
	GetIdeas(ctx context.Context) ([]*model.Idea, error)
	// SaveIdeas はアイデアコレクション全体を指定された並びで上書き保存します。
	SaveIdeas(ctx context.Context, ideas []*model.Idea) error
	// AddIdea はアイデアをコレクションの先頭に追加して保存します。
	AddIdea(ctx context.Context, idea *model.Idea) error
	// UpdateIdea は指定されたIDのアイデアにパッチをマージして保存します。
	// 該当IDが見つかったかどうかを返し、見つからない場合もエラーにはしません。
	UpdateIdea(ctx context.Context, id string, patch *model.IdeaPatch) (bool, error)
	// DeleteIdea は指定されたIDのアイデアを削除します。該当IDがない場合は何もしません。
	DeleteIdea(ctx context.Context, id string) error
}

// SessionStore は認証フラグの読み書きを行うインターフェースです。
type SessionStore interface {
	// IsAuthenticated は認証フラグを読み取ります。スロットが存在しない、
	// または "true" 以外の値の場合は未認証とみなします。
	IsAuthenticated(ctx context.Context) (bool, error)
	// SetAuthenticated は認証フラグを書き込みます。
	SetAuthenticated(ctx context.Context, value bool) error
	// ClearAuthenticated は認証フラグを削除します。
	ClearAuthenticated(ctx context.Context) error
}

// Store はアプリケーションが必要とする永続化操作の集合です。
type Store interface {
	VideoStore
	IdeaStore
	SessionStore
	// Close はストアの接続を閉じます。
	Close() error
}
