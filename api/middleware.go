// Package api はmelbeansのAPIサーバー実装を提供します。
package api

import (
	"net/http"
)

// sessionMiddleware は保護されたエンドポイントへのアクセスを
// 認証済みセッションに限定するミドルウェアです。
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// アクセスコードによるログインが完了しているか確認
		if !s.app.IsAuthenticated() {
			writeJSONError(w, "Unauthorized: Login required", http.StatusUnauthorized)
			return
		}

		// 認証成功：次のハンドラーを呼び出し
		next.ServeHTTP(w, r)
	})
}
