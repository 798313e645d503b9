// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"strings"
	"time"
)

// DateLayout はユーザーが指定するイベント日付の形式です。
const DateLayout = "2006-01-02"

// Video はアーカイブされた動画のメタデータを表すモデルです。
// JSONフィールド名は永続化レイアウトの契約そのままです。
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`                // イベント日付（YYYY-MM-DD）
	VideoURL    string    `json:"videoUrl"`            // 再生可能な動画データへの参照
	Thumbnail   string    `json:"thumbnail,omitempty"` // サムネイル（省略可）
	UploadedAt  time.Time `json:"uploadedAt"`          // システムが付与する作成日時
}

// NewVideo は新しいVideoインスタンスを作成します。
// IDと作成日時は呼び出し側（コントローラ）が生成時に付与します。
func NewVideo(id, title, description, date, videoURL, thumbnail string, uploadedAt time.Time) (*Video, error) {
	v := &Video{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Date:        date,
		VideoURL:    videoURL,
		Thumbnail:   thumbnail,
		UploadedAt:  uploadedAt,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate は動画のデータバリデーションを行います。
func (v *Video) Validate() error {
	if v.ID == "" {
		return NewValidationError("id is required")
	}
	if strings.TrimSpace(v.Title) == "" {
		return NewValidationError("title is required")
	}
	if strings.TrimSpace(v.Description) == "" {
		return NewValidationError("description is required")
	}
	if v.Date == "" {
		return NewValidationError("date is required")
	}
	// イベント日付はカレンダー日付として妥当であること
	if _, err := time.Parse(DateLayout, v.Date); err != nil {
		return NewValidationError("date must be in YYYY-MM-DD format")
	}
	if v.VideoURL == "" {
		return NewValidationError("videoUrl is required")
	}
	if v.UploadedAt.IsZero() {
		return NewValidationError("uploadedAt is required")
	}
	return nil
}

// Matches は検索語が動画のタイトル・説明・日付のいずれかに
// 一致するかを判定します。タイトルと説明は大文字小文字を無視します。
func (v *Video) Matches(term string) bool {
	if term == "" {
		return true
	}
	lower := strings.ToLower(term)
	return strings.Contains(strings.ToLower(v.Title), lower) ||
		strings.Contains(strings.ToLower(v.Description), lower) ||
		strings.Contains(v.Date, term)
}
