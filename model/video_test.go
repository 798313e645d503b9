package model

import (
	"testing"
	"time"
)

func TestNewVideo(t *testing.T) {
	// テストデータ
	uploadedAt := time.Date(2025, 5, 21, 14, 30, 0, 0, time.Local)
	id := NewEntityID(uploadedAt)

	// 動画を生成
	video, err := NewVideo(id, "Beach Day", "A day at the beach", "2025-05-20", "/media/abc.mp4", "", uploadedAt)
	if err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}

	// 各フィールドが正しく設定されていることを確認
	if video.ID != id {
		t.Errorf("Expected ID to be %s, got %s", id, video.ID)
	}
	if video.Title != "Beach Day" {
		t.Errorf("Expected Title to be Beach Day, got %s", video.Title)
	}
	if !video.UploadedAt.Equal(uploadedAt) {
		t.Errorf("Expected UploadedAt to be %v, got %v", uploadedAt, video.UploadedAt)
	}
}

func TestNewVideoTrimsWhitespace(t *testing.T) {
	uploadedAt := time.Date(2025, 5, 21, 14, 30, 0, 0, time.Local)

	video, err := NewVideo(NewEntityID(uploadedAt), "  Beach Day  ", "  A day at the beach ", "2025-05-20", "/media/abc.mp4", "", uploadedAt)
	if err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}

	if video.Title != "Beach Day" {
		t.Errorf("Expected trimmed Title, got %q", video.Title)
	}
	if video.Description != "A day at the beach" {
		t.Errorf("Expected trimmed Description, got %q", video.Description)
	}
}

func TestVideoValidate(t *testing.T) {
	uploadedAt := time.Date(2025, 5, 21, 14, 30, 0, 0, time.Local)

	// 無効なケースの一覧
	tests := []struct {
		name        string
		title       string
		description string
		date        string
		videoURL    string
	}{
		{"タイトルが空", "", "desc", "2025-05-20", "/media/a.mp4"},
		{"タイトルが空白のみ", "   ", "desc", "2025-05-20", "/media/a.mp4"},
		{"説明が空", "title", "", "2025-05-20", "/media/a.mp4"},
		{"日付が空", "title", "desc", "", "/media/a.mp4"},
		{"日付の形式が不正", "title", "desc", "05/20/2025", "/media/a.mp4"},
		{"動画URLが空", "title", "desc", "2025-05-20", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVideo(NewEntityID(uploadedAt), tc.title, tc.description, tc.date, tc.videoURL, "", uploadedAt)
			if err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestVideoMatches(t *testing.T) {
	uploadedAt := time.Date(2025, 5, 21, 14, 30, 0, 0, time.Local)
	video, err := NewVideo(NewEntityID(uploadedAt), "Beach Day", "Sunset at the shore", "2025-05-20", "/media/a.mp4", "", uploadedAt)
	if err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}

	tests := []struct {
		name string
		term string
		want bool
	}{
		{"空の検索語はすべてに一致", "", true},
		{"タイトルに一致（大文字小文字を無視）", "beach", true},
		{"説明に一致", "sunset", true},
		{"日付に一致", "2025-05", true},
		{"一致なし", "mountain", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := video.Matches(tc.term); got != tc.want {
				t.Errorf("Matches(%q) = %v, want %v", tc.term, got, tc.want)
			}
		})
	}
}
