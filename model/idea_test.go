package model

import (
	"testing"
	"time"
)

func TestNewIdea(t *testing.T) {
	// テストデータ
	createdAt := time.Date(2025, 5, 21, 14, 30, 0, 0, time.Local)
	id := NewEntityID(createdAt)

	// アイデアを生成
	idea, err := NewIdea(id, "Title A", "Desc A", createdAt)
	if err != nil {
		t.Fatalf("Failed to create idea: %v", err)
	}

	if idea.ID != id {
		t.Errorf("Expected ID to be %s, got %s", id, idea.ID)
	}
	if idea.Title != "Title A" {
		t.Errorf("Expected Title to be Title A, got %s", idea.Title)
	}
	if !idea.CreatedAt.Equal(createdAt) {
		t.Errorf("Expected CreatedAt to be %v, got %v", createdAt, idea.CreatedAt)
	}
}

func TestIdeaValidate(t *testing.T) {
	createdAt := time.Date(2025, 5, 21, 14, 30, 0, 0, time.Local)

	// タイトルが空
	if _, err := NewIdea(NewEntityID(createdAt), "", "desc", createdAt); err == nil {
		t.Error("Expected error for empty title, got nil")
	}

	// 説明が空
	if _, err := NewIdea(NewEntityID(createdAt), "title", "  ", createdAt); err == nil {
		t.Error("Expected error for empty description, got nil")
	}
}

func TestIdeaApply(t *testing.T) {
	createdAt := time.Date(2025, 5, 21, 14, 30, 0, 0, time.Local)
	idea, err := NewIdea(NewEntityID(createdAt), "Title A", "Desc A", createdAt)
	if err != nil {
		t.Fatalf("Failed to create idea: %v", err)
	}

	// タイトルのみを更新
	newTitle := "Title B"
	updated := idea.Apply(&IdeaPatch{Title: &newTitle})

	if updated.Title != "Title B" {
		t.Errorf("Expected Title to be Title B, got %s", updated.Title)
	}

	// パッチで指定していないフィールドは保持される
	if updated.Description != "Desc A" {
		t.Errorf("Expected Description to be preserved, got %s", updated.Description)
	}
	if updated.ID != idea.ID {
		t.Errorf("Expected ID to be preserved, got %s", updated.ID)
	}
	if !updated.CreatedAt.Equal(idea.CreatedAt) {
		t.Errorf("Expected CreatedAt to be preserved, got %v", updated.CreatedAt)
	}

	// 同じパッチを二度適用しても結果は変わらない（冪等性）
	twice := updated.Apply(&IdeaPatch{Title: &newTitle})
	if *twice != *updated {
		t.Errorf("Expected applying the same patch twice to be idempotent, got %+v", twice)
	}

	// 元のアイデアは変更されない
	if idea.Title != "Title A" {
		t.Errorf("Expected original idea to be unchanged, got %s", idea.Title)
	}
}

func TestIdeaPatchIsEmpty(t *testing.T) {
	if !(&IdeaPatch{}).IsEmpty() {
		t.Error("Expected empty patch to report IsEmpty")
	}

	title := "x"
	if (&IdeaPatch{Title: &title}).IsEmpty() {
		t.Error("Expected patch with title not to report IsEmpty")
	}
}
