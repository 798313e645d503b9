// Package api はmelbeansのAPIサーバー実装を提供します。
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/melbeans/melbeans/app"
	"github.com/melbeans/melbeans/graph"
	"github.com/melbeans/melbeans/media"
	"github.com/melbeans/melbeans/model"
)

// maxUploadSize は動画アップロードのメモリ上限です (32MB、超過分は一時ファイルへ)。
const maxUploadSize = 32 << 20

// Server はAPIサーバーの構造体です。
type Server struct {
	router *http.ServeMux
	app    *app.App
	media  *media.Store
}

// ErrorResponse はエラーレスポンスの構造体です。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// writeJSONError はJSON形式でエラーレスポンスを返却します。
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	resp := ErrorResponse{
		Error: message,
		Code:  statusCode,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding error response: %v", err)
	}
}

// NewServer は新しいAPIサーバーインスタンスを生成します。
func NewServer(app *app.App, media *media.Store) *Server {
	s := &Server{
		router: http.NewServeMux(),
		app:    app,
		media:  media,
	}
	s.routes()
	return s
}

// routes はAPIエンドポイントのルーティングを設定します。
func (s *Server) routes() {
	// ヘルスチェックとログイン系のエンドポイントは認証不要
	s.router.HandleFunc("GET /healthz", s.handleHealthCheck)
	s.router.HandleFunc("POST /api/v0/login", s.handleLogin)
	s.router.HandleFunc("GET /api/v0/session", s.handleGetSession)

	// すべての保護されたエンドポイントをまずセキュアなルータに登録
	securedHandler := http.NewServeMux()

	securedHandler.HandleFunc("POST /api/v0/logout", s.handleLogout)

	// Video endpoints
	securedHandler.HandleFunc("GET /api/v0/videos", s.handleListVideos)
	securedHandler.HandleFunc("POST /api/v0/videos", s.handleUploadVideo)
	securedHandler.HandleFunc("DELETE /api/v0/videos/{video_id}", s.handleDeleteVideo)

	// Idea endpoints
	securedHandler.HandleFunc("GET /api/v0/ideas", s.handleListIdeas)
	securedHandler.HandleFunc("POST /api/v0/ideas", s.handleCreateIdea)
	securedHandler.HandleFunc("PATCH /api/v0/ideas/{idea_id}", s.handleUpdateIdea)
	securedHandler.HandleFunc("DELETE /api/v0/ideas/{idea_id}", s.handleDeleteIdea)

	securedHandler.HandleFunc("GET /api/v0/stats", s.handleGetStats)

	// セッションミドルウェアを適用し、メインルータにマウント
	s.router.Handle("/api/", s.sessionMiddleware(securedHandler))

	// 動画ファイルの配信も認証が必要
	s.router.Handle("GET /media/{file}", s.sessionMiddleware(http.HandlerFunc(s.handleGetMedia)))

	// Graph endpoints - support both with and without .svg extension
	s.router.HandleFunc("GET /stats/graph.svg", s.handleGetGraph)
	s.router.HandleFunc("GET /stats/graph", s.handleGetGraph)
}

// ServeHTTP はServer構造体をhttp.Handlerとして実装します。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// routesに設定されたルーティングを使用する
	s.router.ServeHTTP(w, r)
}

// handleHealthCheck はヘルスチェックエンドポイントのハンドラーです。
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := map[string]string{"status": "ok"}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// LoginParams represents parameters for logging in.
type LoginParams struct {
	Code string
}

// NewLoginParams creates parameters for login from HTTP request.
func NewLoginParams(r *http.Request) (*LoginParams, error) {
	var requestBody struct {
		Code string `json:"code"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if requestBody.Code == "" {
		return nil, fmt.Errorf("code is required")
	}

	return &LoginParams{
		Code: requestBody.Code,
	}, nil
}

// SessionResponse はセッション状態のレスポンスです。
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// handleLogin はアクセスコードによるログインのハンドラーです。
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewLoginParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// アクセスコードの検証と認証フラグの永続化
	if err := s.app.Login(r.Context(), params.Code); err != nil {
		if errors.Is(err, app.ErrInvalidCode) {
			writeJSONError(w, "Invalid access code", http.StatusUnauthorized)
		} else {
			log.Printf("Error logging in: %v", err)
			writeJSONError(w, "Failed to log in", http.StatusInternalServerError)
		}
		return
	}

	// 成功レスポンスの返却
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SessionResponse{Authenticated: true}); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// handleLogout はログアウトのハンドラーです。
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Logout(r.Context()); err != nil {
		log.Printf("Error logging out: %v", err)
		writeJSONError(w, "Failed to log out", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetSession は現在のセッション状態を返すハンドラーです。
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := SessionResponse{Authenticated: s.app.IsAuthenticated()}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// ListVideosResponse は動画一覧取得のレスポンスです。
type ListVideosResponse struct {
	Items []*model.Video `json:"items"`
}

// handleListVideos は動画の一覧・検索エンドポイントのハンドラーです。
// クエリパラメータ q が指定された場合は一致する動画のみを返します。
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	// レスポンスの構築
	response := &ListVideosResponse{
		Items: s.app.SearchVideos(term),
	}
	// 空配列を返すためにnilチェック
	if response.Items == nil {
		response.Items = []*model.Video{}
	}

	// レスポンスの返却
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// UploadVideoParams represents parameters for uploading a video.
// Either VideoURL or File is set depending on the request encoding.
type UploadVideoParams struct {
	Title       string
	Description string
	Date        string
	VideoURL    string
	Thumbnail   string
	File        multipart.File
	Filename    string
}

// Close releases the uploaded file if present.
func (p *UploadVideoParams) Close() {
	if p.File != nil {
		p.File.Close()
	}
}

// NewUploadVideoParams creates parameters for video upload from HTTP request.
// JSONボディとmultipart/form-dataの両方を受け付けます。
func NewUploadVideoParams(r *http.Request) (*UploadVideoParams, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("invalid content type: %w", err)
	}

	// multipart: メタデータはフォームフィールド、動画本体はvideoフィールド
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, fmt.Errorf("invalid multipart form: %w", err)
		}

		file, header, err := r.FormFile("video")
		if err != nil {
			return nil, fmt.Errorf("video file is required: %w", err)
		}

		return &UploadVideoParams{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Date:        r.FormValue("date"),
			Thumbnail:   r.FormValue("thumbnail"),
			File:        file,
			Filename:    header.Filename,
		}, nil
	}

	// JSON: 動画本体は外部URLで参照する
	var requestBody struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Date        string `json:"date"`
		VideoURL    string `json:"videoUrl"`
		Thumbnail   string `json:"thumbnail"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if requestBody.VideoURL == "" {
		return nil, fmt.Errorf("videoUrl is required")
	}

	return &UploadVideoParams{
		Title:       requestBody.Title,
		Description: requestBody.Description,
		Date:        requestBody.Date,
		VideoURL:    requestBody.VideoURL,
		Thumbnail:   requestBody.Thumbnail,
	}, nil
}

// handleUploadVideo は動画アップロードエンドポイントのハンドラーです。
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewUploadVideoParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer params.Close()

	// 動画メタデータの作成と保存（ファイル付きの場合は本体の保存も含む）
	video, err := s.app.UploadVideo(r.Context(), app.UploadVideoParams{
		Title:       params.Title,
		Description: params.Description,
		Date:        params.Date,
		VideoURL:    params.VideoURL,
		Thumbnail:   params.Thumbnail,
		File:        params.File,
		Filename:    params.Filename,
	})
	if err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) || errors.Is(err, media.ErrUnsupportedExtension) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		} else {
			log.Printf("Error uploading video: %v", err)
			writeJSONError(w, "Failed to upload video", http.StatusInternalServerError)
		}
		return
	}

	// 成功レスポンスの返却
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(video); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// DeleteVideoParams represents parameters for deleting a video.
type DeleteVideoParams struct {
	VideoID string
}

// NewDeleteVideoParams creates parameters for video deletion from HTTP request.
func NewDeleteVideoParams(r *http.Request) (*DeleteVideoParams, error) {
	videoID := r.PathValue("video_id")
	if videoID == "" {
		return nil, fmt.Errorf("video_id is required")
	}

	return &DeleteVideoParams{
		VideoID: videoID,
	}, nil
}

// handleDeleteVideo は動画削除エンドポイントのハンドラーです。
// 該当IDが存在しない場合もエラーにしません（べき等性）。
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewDeleteVideoParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 動画の削除（本体がアーカイブに保存されている場合はファイルも消える）
	if err := s.app.DeleteVideo(r.Context(), params.VideoID); err != nil {
		log.Printf("Error deleting video: %v", err)
		writeJSONError(w, "Failed to delete video", http.StatusInternalServerError)
		return
	}

	// 削除成功のレスポンスを返す
	w.WriteHeader(http.StatusNoContent)
}

// ListIdeasResponse はアイデア一覧取得のレスポンスです。
type ListIdeasResponse struct {
	Items []*model.Idea `json:"items"`
}

// handleListIdeas はアイデア一覧取得のハンドラーです。
func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	// レスポンスの構築
	response := &ListIdeasResponse{
		Items: s.app.Ideas(),
	}
	// 空配列を返すためにnilチェック
	if response.Items == nil {
		response.Items = []*model.Idea{}
	}

	// レスポンスの返却
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// handleCreateIdea はアイデア作成エンドポイントのハンドラーです。
func (s *Server) handleCreateIdea(w http.ResponseWriter, r *http.Request) {
	// リクエストボディの読み取り
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	// JSONのパース
	var ideaData struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &ideaData); err != nil {
		writeJSONError(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	// アイデアの作成と保存
	idea, err := s.app.AddIdea(r.Context(), ideaData.Title, ideaData.Description)
	if err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		} else {
			log.Printf("Error creating idea: %v", err)
			writeJSONError(w, "Failed to create idea", http.StatusInternalServerError)
		}
		return
	}

	// 成功レスポンスの返却
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(idea); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// UpdateIdeaParams represents parameters for updating an idea.
type UpdateIdeaParams struct {
	IdeaID string
	Patch  *model.IdeaPatch
}

// NewUpdateIdeaParams creates parameters for idea update from HTTP request.
func NewUpdateIdeaParams(r *http.Request) (*UpdateIdeaParams, error) {
	ideaID := r.PathValue("idea_id")
	if ideaID == "" {
		return nil, fmt.Errorf("idea_id is required")
	}

	// Parse request body (部分更新をサポートするためポインタ型を使用)
	var requestBody struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	return &UpdateIdeaParams{
		IdeaID: ideaID,
		Patch: &model.IdeaPatch{
			Title:       requestBody.Title,
			Description: requestBody.Description,
		},
	}, nil
}

// handleUpdateIdea はアイデアの部分更新エンドポイントのハンドラーです。
func (s *Server) handleUpdateIdea(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewUpdateIdeaParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// パッチの適用
	idea, err := s.app.UpdateIdea(r.Context(), params.IdeaID, params.Patch)
	if err != nil {
		if errors.Is(err, model.ErrIdeaNotFound) {
			writeJSONError(w, fmt.Sprintf("Idea with ID %s not found", params.IdeaID), http.StatusNotFound)
		} else {
			var validationErr *model.ValidationError
			if errors.As(err, &validationErr) {
				writeJSONError(w, err.Error(), http.StatusBadRequest)
			} else {
				log.Printf("Error updating idea: %v", err)
				writeJSONError(w, "Failed to update idea", http.StatusInternalServerError)
			}
		}
		return
	}

	// 更新成功のレスポンスを返却
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(idea); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// DeleteIdeaParams represents parameters for deleting an idea.
type DeleteIdeaParams struct {
	IdeaID string
}

// NewDeleteIdeaParams creates parameters for idea deletion from HTTP request.
func NewDeleteIdeaParams(r *http.Request) (*DeleteIdeaParams, error) {
	ideaID := r.PathValue("idea_id")
	if ideaID == "" {
		return nil, fmt.Errorf("idea_id is required")
	}

	return &DeleteIdeaParams{
		IdeaID: ideaID,
	}, nil
}

// handleDeleteIdea はアイデア削除エンドポイントのハンドラーです。
// 該当IDが存在しない場合もエラーにしません（べき等性）。
func (s *Server) handleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewDeleteIdeaParams(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// アイデアの削除
	if err := s.app.DeleteIdea(r.Context(), params.IdeaID); err != nil {
		log.Printf("Error deleting idea: %v", err)
		writeJSONError(w, "Failed to delete idea", http.StatusInternalServerError)
		return
	}

	// 削除成功のレスポンスを返す
	w.WriteHeader(http.StatusNoContent)
}

// handleGetStats はコレクション件数の統計エンドポイントのハンドラーです。
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.app.Stats()); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// handleGetMedia はメディアストアに保存された動画ファイルを配信するハンドラーです。
func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	f, err := s.media.Open(r.PathValue("file"))
	if err != nil {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Printf("Error reading video file: %v", err)
		writeJSONError(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// GetGraphParams represents parameters for getting the activity graph.
type GetGraphParams struct {
	From time.Time
	To   time.Time
}

// NewGetGraphParams creates parameters for graph generation from HTTP request.
// 範囲の指定がない場合は今日までの直近1年間を使用します。
func NewGetGraphParams(r *http.Request) (*GetGraphParams, error) {
	query := r.URL.Query()

	to := time.Now()
	if s := query.Get("to"); s != "" {
		t, err := time.Parse(model.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid to date: %w", err)
		}
		to = t
	}

	from := to.AddDate(-1, 0, 1)
	if s := query.Get("from"); s != "" {
		t, err := time.Parse(model.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid from date: %w", err)
		}
		from = t
	}

	if from.After(to) {
		return nil, fmt.Errorf("from date must not be after to date")
	}

	return &GetGraphParams{
		From: from,
		To:   to,
	}, nil
}

// handleGetGraph はアップロード活動グラフを生成・返却するハンドラーです。
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	// パラメータを検証
	params, err := NewGetGraphParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// アップロード日時の収集とグラフ用データの作成
	var dates []time.Time
	for _, v := range s.app.Videos() {
		dates = append(dates, v.UploadedAt)
	}
	data := graph.FromDates(dates, params.From, params.To)

	svg := graph.GenerateActivitySVG(data, graph.DefaultOptions())

	// レスポンスの返却
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(svg))
}

// Run はサーバーを指定されたアドレスで起動します。
func (s *Server) Run(addr string) error {
	log.Printf("Server starting on %s", addr)
	return http.ListenAndServe(addr, s)
}
