// Package app は、ビュー層と永続化ストアを仲介する
// アプリケーション状態コントローラを提供します。
package app

import "errors"

// ErrInvalidCode はアクセスコードが一致しない場合のセンチネルエラーです。
var ErrInvalidCode = errors.New("invalid access code")

// Authenticator はアクセスコードの検証を行う能力です。
// 単一文字列比較を別の検証方式に差し替えられるように
// コントローラから切り離しています。
type Authenticator interface {
	// Verify はアクセスコードが正しいかどうかを判定します。
	Verify(code string) bool
}

// AccessCodeAuthenticator は設定された共有アクセスコードとの
// 完全一致（大文字小文字を区別）で検証するAuthenticatorの実装です。
type AccessCodeAuthenticator struct {
	code string
}

// NewAccessCodeAuthenticator は新しいAccessCodeAuthenticatorを作成します。
func NewAccessCodeAuthenticator(code string) *AccessCodeAuthenticator {
	return &AccessCodeAuthenticator{code: code}
}

// Verify はアクセスコードが設定値と完全一致するかを判定します。
// 長さ違いと内容違いを区別せず、単に一致か不一致かのみを返します。
func (a *AccessCodeAuthenticator) Verify(code string) bool {
	return code == a.code
}
