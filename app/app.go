// Package app は、ビュー層と永続化ストアを仲介する
// アプリケーション状態コントローラを提供します。
package app

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/melbeans/melbeans/model"
	"github.com/melbeans/melbeans/store"
)

// FileSaver は動画本体のバイト列を永続化する能力です。
type FileSaver interface {
	// Save は動画バイト列をIDに紐づくファイルとして保存し、
	// 安定したvideoUrlを返します。
	Save(id, filename string, r io.Reader) (string, error)
	// Remove はvideoUrlが指す保存済みファイルを削除します。
	// このストアが管理していないURLは無視します。
	Remove(videoURL string) error
}

// App はアプリケーション状態コントローラです。
// ストアと同期したコレクションのスナップショットをメモリ上に保持し、
// すべての変更操作の後にストアから読み直して再公開します。
// ストアが唯一の信頼できる情報源であり、スナップショットは
// 描画用のキャッシュにすぎません。
type App struct {
	store store.Store
	auth  Authenticator
	files FileSaver
	now   func() time.Time
	newID model.IDGenerator

	mu            sync.RWMutex
	videos        []*model.Video
	ideas         []*model.Idea
	authenticated bool
}

// Option はAppの生成オプションです。
type Option func(*App)

// WithClock は現在時刻の取得関数を差し替えます（テスト用）。
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithIDGenerator はエンティティIDの生成関数を差し替えます（テスト用）。
func WithIDGenerator(gen model.IDGenerator) Option {
	return func(a *App) { a.newID = gen }
}

// WithFileSaver は動画本体の保存先を設定します。
// 未設定の場合、ファイル付きのアップロードは拒否されます。
func WithFileSaver(fs FileSaver) Option {
	return func(a *App) { a.files = fs }
}

// New は新しいAppを作成し、初期状態をストアから読み込みます。
func New(ctx context.Context, s store.Store, auth Authenticator, opts ...Option) (*App, error) {
	a := &App{
		store: s,
		auth:  auth,
		now:   time.Now,
		newID: model.NewEntityID,
	}
	for _, opt := range opts {
		opt(a)
	}

	// 初期状態の読み込み：認証フラグと両コレクションを一度だけ読む
	authenticated, err := s.IsAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	videos, err := s.GetVideos(ctx)
	if err != nil {
		return nil, err
	}
	ideas, err := s.GetIdeas(ctx)
	if err != nil {
		return nil, err
	}

	a.authenticated = authenticated
	a.videos = videos
	a.ideas = ideas
	return a, nil
}

// Login はアクセスコードを検証し、成功した場合に認証フラグを永続化します。
// コードが一致しない場合はストアに触れず ErrInvalidCode を返します。
func (a *App) Login(ctx context.Context, code string) error {
	if !a.auth.Verify(code) {
		return ErrInvalidCode
	}
	if err := a.store.SetAuthenticated(ctx, true); err != nil {
		return err
	}

	a.mu.Lock()
	a.authenticated = true
	a.mu.Unlock()
	return nil
}

// Logout は認証フラグを削除します。コレクションはそのまま残ります。
func (a *App) Logout(ctx context.Context) error {
	if err := a.store.ClearAuthenticated(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.authenticated = false
	a.mu.Unlock()
	return nil
}

// IsAuthenticated は現在のセッションが認証済みかどうかを返します。
func (a *App) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticated
}

// Videos は動画コレクションの現在のスナップショットを返します（新しい順）。
func (a *App) Videos() []*model.Video {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snapshot := make([]*model.Video, len(a.videos))
	copy(snapshot, a.videos)
	return snapshot
}

// Ideas はアイデアコレクションの現在のスナップショットを返します（新しい順）。
func (a *App) Ideas() []*model.Idea {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snapshot := make([]*model.Idea, len(a.ideas))
	copy(snapshot, a.ideas)
	return snapshot
}

// SearchVideos は検索語に一致する動画を返します。
// タイトルと説明は大文字小文字を無視した部分一致、日付は部分一致です。
func (a *App) SearchVideos(term string) []*model.Video {
	videos := a.Videos()
	if term == "" {
		return videos
	}
	matched := make([]*model.Video, 0, len(videos))
	for _, v := range videos {
		if v.Matches(term) {
			matched = append(matched, v)
		}
	}
	return matched
}

// Stats はアーカイブの統計情報です。
type Stats struct {
	VideoCount int `json:"video_count"`
	IdeaCount  int `json:"idea_count"`
}

// Stats は現在のコレクション件数を返します。
func (a *App) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Stats{
		VideoCount: len(a.videos),
		IdeaCount:  len(a.ideas),
	}
}

// UploadVideoParams は動画アップロードのパラメータです。
// 動画本体は外部URL（VideoURL）かアップロードされたファイル（File）の
// どちらかで指定します。
type UploadVideoParams struct {
	Title       string
	Description string
	Date        string
	VideoURL    string
	Thumbnail   string
	File        io.Reader
	Filename    string
}

// UploadVideo は新しい動画を作成してコレクションの先頭に追加します。
// IDと作成日時はここで付与され、以後変更されません。ファイル付きの場合は
// 動画本体も同じIDで保存され、メタデータが不正なときはファイルを残しません。
func (a *App) UploadVideo(ctx context.Context, params UploadVideoParams) (*model.Video, error) {
	now := a.now()
	id := a.newID(now)

	videoURL := params.VideoURL
	saved := false
	if params.File != nil {
		if a.files == nil {
			return nil, model.NewValidationError("video file uploads are not supported")
		}
		url, err := a.files.Save(id, params.Filename, params.File)
		if err != nil {
			return nil, err
		}
		videoURL = url
		saved = true
	}

	video, err := model.NewVideo(id, params.Title, params.Description, params.Date, videoURL, params.Thumbnail, now)
	if err != nil {
		a.removeOrphanFile(saved, videoURL)
		return nil, err
	}

	if err := a.store.AddVideo(ctx, video); err != nil {
		a.removeOrphanFile(saved, videoURL)
		return nil, err
	}
	if err := a.refreshVideos(ctx); err != nil {
		return nil, err
	}
	return video, nil
}

// removeOrphanFile はアップロードの失敗時に保存済みのファイルを片付けます。
func (a *App) removeOrphanFile(saved bool, videoURL string) {
	if !saved {
		return
	}
	if err := a.files.Remove(videoURL); err != nil {
		log.Printf("Failed to remove orphaned video file: %v", err)
	}
}

// DeleteVideo は指定されたIDの動画を削除します。該当IDがない場合も成功します。
// 動画本体がこのアーカイブに保存されている場合はファイルも削除します。
func (a *App) DeleteVideo(ctx context.Context, id string) error {
	// ファイル削除のためにURLを控えておく
	var videoURL string
	a.mu.RLock()
	for _, v := range a.videos {
		if v.ID == id {
			videoURL = v.VideoURL
			break
		}
	}
	a.mu.RUnlock()

	if err := a.store.DeleteVideo(ctx, id); err != nil {
		return err
	}
	if err := a.refreshVideos(ctx); err != nil {
		return err
	}

	// 動画本体の削除（管理外のURLではFileSaverが何もしない）
	if a.files != nil && videoURL != "" {
		if err := a.files.Remove(videoURL); err != nil {
			// メタデータの削除は完了しているため、エラーとしては扱わない
			log.Printf("Failed to remove video file: %v", err)
		}
	}
	return nil
}

// AddIdea は新しいアイデアを作成してコレクションの先頭に追加します。
func (a *App) AddIdea(ctx context.Context, title, description string) (*model.Idea, error) {
	now := a.now()
	idea, err := model.NewIdea(a.newID(now), title, description, now)
	if err != nil {
		return nil, err
	}

	if err := a.store.AddIdea(ctx, idea); err != nil {
		return nil, err
	}
	if err := a.refreshIdeas(ctx); err != nil {
		return nil, err
	}
	return idea, nil
}

// UpdateIdea は指定されたIDのアイデアにパッチを適用します。
// パッチはタイトルと説明のみを更新でき、IDと作成日時は変更されません。
// 該当IDが見つからない場合は model.ErrIdeaNotFound を返します。
func (a *App) UpdateIdea(ctx context.Context, id string, patch *model.IdeaPatch) (*model.Idea, error) {
	found, err := a.store.UpdateIdea(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, model.ErrIdeaNotFound
	}
	if err := a.refreshIdeas(ctx); err != nil {
		return nil, err
	}

	// 更新後のスナップショットから該当アイデアを返す
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, idea := range a.ideas {
		if idea.ID == id {
			return idea, nil
		}
	}
	return nil, model.ErrIdeaNotFound
}

// DeleteIdea は指定されたIDのアイデアを削除します。該当IDがない場合も成功します。
func (a *App) DeleteIdea(ctx context.Context, id string) error {
	if err := a.store.DeleteIdea(ctx, id); err != nil {
		return err
	}
	return a.refreshIdeas(ctx)
}

// refreshVideos はストアから動画コレクションを読み直して再公開します。
func (a *App) refreshVideos(ctx context.Context) error {
	videos, err := a.store.GetVideos(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.videos = videos
	a.mu.Unlock()
	return nil
}

// refreshIdeas はストアからアイデアコレクションを読み直して再公開します。
func (a *App) refreshIdeas(ctx context.Context) error {
	ideas, err := a.store.GetIdeas(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.ideas = ideas
	a.mu.Unlock()
	return nil
}
