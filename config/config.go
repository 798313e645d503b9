// Package config はアプリケーション設定を管理します。
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DefaultAccessCode は環境変数で上書きされない場合のアクセスコードです。
// ブラウザ版アーカイブと同じ値を既定にしています。
const DefaultAccessCode = "mel8beans"

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	// データディレクトリのパス
	DataDir string

	// HTTPサーバーのポート
	Port string

	// ログインを許可する共有アクセスコード
	AccessCode string
}

// NewConfig は環境変数から設定を読み込み、Configインスタンスを生成します。
// カレントディレクトリに .env ファイルがあれば先に読み込みます。
func NewConfig() *Config {
	// .env は存在しなくてもよい
	_ = godotenv.Load()

	// データディレクトリの設定
	dataDir := os.Getenv("MELBEANS_DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(".", "data")
	}

	// ポートの設定
	port := os.Getenv("MELBEANS_SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	// アクセスコードの設定
	accessCode := os.Getenv("MELBEANS_ACCESS_CODE")
	if accessCode == "" {
		accessCode = DefaultAccessCode
	}

	return &Config{
		DataDir:    dataDir,
		Port:       port,
		AccessCode: accessCode,
	}
}
