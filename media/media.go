// Package media は、アップロードされた動画バイト列の永続化を提供します。
// ブラウザ版アーカイブの一時的なblobハンドルと異なり、videoUrl は
// ここに保存されたファイルへの安定した参照になります。
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// URLPrefix は保存された動画を配信するURLパスのプレフィックスです。
const URLPrefix = "/media/"

// ErrUnsupportedExtension はサポート外の拡張子のファイルが
// 保存されようとした場合のセンチネルエラーです。
var ErrUnsupportedExtension = errors.New("unsupported video file extension")

// 受け付ける動画ファイルの拡張子
var allowedExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".mkv":  true,
}

// Store はデータディレクトリ配下に動画ファイルを保存するストアです。
type Store struct {
	dir string
}

// NewStore は新しいStoreを作成します。
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "media")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save は動画バイト列をエンティティIDに紐づくファイルとして保存し、
// 安定したvideoUrlを返します。一時ファイルに書いてからリネームするため、
// 部分的に書き込まれたファイルが公開されることはありません。
func (s *Store) Save(id, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	name := id + ext
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close media file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize media file: %w", err)
	}

	return URLPrefix + name, nil
}

// Open は保存された動画ファイルを開きます。
// パストラバーサルを防ぐためファイル名のベース部分のみを使用します。
func (s *Store) Open(name string) (*os.File, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(name)))
}

// Remove はvideoUrlが指す保存済みファイルを削除します。
// このストアが管理していないURL（外部参照やblobハンドル）は無視し、
// ファイルが既に存在しない場合もエラーにしません。
func (s *Store) Remove(videoURL string) error {
	name, ok := strings.CutPrefix(videoURL, URLPrefix)
	if !ok || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove media file: %w", err)
	}
	return nil
}
