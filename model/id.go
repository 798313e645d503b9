// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator はエンティティIDを生成する関数型です。
// テストで固定IDを注入できるように差し替え可能にしています。
type IDGenerator func(now time.Time) string

// NewEntityID は作成時刻由来のエンティティIDを生成します。
// ミリ秒タイムスタンプだけでは連続作成時に衝突しうるため、
// ランダムなサフィックスを付与して一意性を保証します。
// 外部契約は従来どおり不透明な文字列のままです。
func NewEntityID(now time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix
}
