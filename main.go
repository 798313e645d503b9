// Package main はアプリケーションのエントリーポイントを提供します。
package main

import (
	"context"
	"log"

	"github.com/melbeans/melbeans/api"
	"github.com/melbeans/melbeans/app"
	"github.com/melbeans/melbeans/config"
	"github.com/melbeans/melbeans/db"
	"github.com/melbeans/melbeans/media"
	"github.com/melbeans/melbeans/store"
)

func main() {
	// 設定の読み込み
	cfg := config.NewConfig()

	// SQLiteストアの初期化（マイグレーション関数を渡す）
	sqliteStore, err := store.NewSQLiteStore(cfg.DataDir, db.Migrate)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	// メディアストアの初期化
	mediaStore, err := media.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize media store: %v", err)
	}

	// アプリケーション状態コントローラの作成
	a, err := app.New(context.Background(), sqliteStore, app.NewAccessCodeAuthenticator(cfg.AccessCode), app.WithFileSaver(mediaStore))
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	// サーバーインスタンスの作成
	server := api.NewServer(a, mediaStore)

	// サーバーの起動
	log.Fatal(server.Run(":" + cfg.Port))
}
