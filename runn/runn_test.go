package runn

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/k1LoW/runn"
	"github.com/melbeans/melbeans/api"
	"github.com/melbeans/melbeans/app"
	"github.com/melbeans/melbeans/config"
	"github.com/melbeans/melbeans/db"
	"github.com/melbeans/melbeans/media"
	"github.com/melbeans/melbeans/store"
)

func TestRouter(t *testing.T) {
	os.Setenv("MELBEANS_ACCESS_CODE", "test-code")
	os.Setenv("MELBEANS_DATA_DIR", "./testdata")

	if err := os.RemoveAll("./testdata"); err != nil {
		t.Fatalf("Failed to clean test data dir: %v", err)
	}

	// 設定の読み込み
	cfg := config.NewConfig()

	// SQLiteストアの初期化（マイグレーション関数を渡す）
	sqliteStore, err := store.NewSQLiteStore(cfg.DataDir, db.Migrate)
	if err != nil {
		t.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	// メディアストアの初期化
	mediaStore, err := media.NewStore(cfg.DataDir)
	if err != nil {
		t.Fatalf("Failed to initialize media store: %v", err)
	}

	ctx := context.Background()

	// アプリケーション状態コントローラの作成
	a, err := app.New(ctx, sqliteStore, app.NewAccessCodeAuthenticator(cfg.AccessCode), app.WithFileSaver(mediaStore))
	if err != nil {
		t.Fatalf("Failed to initialize app: %v", err)
	}

	// サーバーインスタンスの作成
	server := api.NewServer(a, mediaStore)

	ts := httptest.NewServer(server)
	t.Cleanup(func() {
		ts.Close()
	})
	opts := []runn.Option{
		runn.T(t),
		runn.Runner("req", ts.URL),
		runn.Var("access_code", "test-code"),
	}
	o, err := runn.Load("./**/*.yml", opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.RunN(ctx); err != nil {
		t.Fatal(err)
	}
}
