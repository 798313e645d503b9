// Package model は、アプリケーションのデータモデル定義を提供します。
package model

import (
	"strings"
	"time"
)

// Idea は動画のアイデアメモを表すモデルです。
type Idea struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"` // システムが付与する作成日時
}

// IdeaPatch はアイデアの部分更新を表します。
// IDとCreatedAtはこの型で表現できないため、作成後に変更されることはありません。
type IdeaPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// IsEmpty はパッチが何も更新しないかどうかを返します。
func (p *IdeaPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil
}

// NewIdea は新しいIdeaインスタンスを作成します。
func NewIdea(id, title, description string, createdAt time.Time) (*Idea, error) {
	i := &Idea{
		ID:          id,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		CreatedAt:   createdAt,
	}
	if err := i.Validate(); err != nil {
		return nil, err
	}
	return i, nil
}

// Validate はアイデアのデータバリデーションを行います。
func (i *Idea) Validate() error {
	if i.ID == "" {
		return NewValidationError("id is required")
	}
	if strings.TrimSpace(i.Title) == "" {
		return NewValidationError("title is required")
	}
	if strings.TrimSpace(i.Description) == "" {
		return NewValidationError("description is required")
	}
	if i.CreatedAt.IsZero() {
		return NewValidationError("createdAt is required")
	}
	return nil
}

// Apply はパッチで指定されたフィールドのみを上書きした
// 新しいIdeaを返します。指定のないフィールドは保持されます。
func (i *Idea) Apply(patch *IdeaPatch) *Idea {
	updated := *i
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	return &updated
}
