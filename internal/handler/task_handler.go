package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/abdulwedud33/advanced-todo-backend/internal/middleware"
	"github.com/abdulwedud33/advanced-todo-backend/internal/model"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
// 全ての操作は認可ゲートが解決した所有者IDを受け取る。
type TaskServiceInterface interface {
	ListPending(ctx context.Context, ownerID string) ([]*model.Task, error)
	ListCompleted(ctx context.Context, ownerID string) ([]*model.Task, error)
	Create(ctx context.Context, ownerID, title, content string) error
	MarkComplete(ctx context.Context, ownerID, taskID string) error
	Update(ctx context.Context, ownerID, taskID, title, content string) error
	Delete(ctx context.Context, ownerID, taskID string) error
}

// TaskMetricsRecorder はタスク操作のメトリクス記録インターフェース。
type TaskMetricsRecorder interface {
	RecordTaskCreated()
	RecordTaskCompleted()
}

// noopTaskMetrics はメトリクス未設定時のフォールバック。
type noopTaskMetrics struct{}

func (noopTaskMetrics) RecordTaskCreated()   {}
func (noopTaskMetrics) RecordTaskCompleted() {}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
	metrics TaskMetricsRecorder
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, metrics TaskMetricsRecorder) *TaskHandler {
	if metrics == nil {
		metrics = noopTaskMetrics{}
	}
	return &TaskHandler{
		service: service,
		metrics: metrics,
	}
}

// --- リクエスト・レスポンス型 ---

// taskResponse はタスク1件のレスポンス。
type taskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// addTaskRequest はタスク作成リクエストのボディ。
type addTaskRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// doneTaskRequest は完了マークリクエストのボディ。
type doneTaskRequest struct {
	ID string `json:"id"`
}

// editTaskRequest はタスク編集リクエストのボディ。
type editTaskRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// deleteTaskRequest はタスク削除リクエストのボディ。
type deleteTaskRequest struct {
	ID string `json:"id"`
}

// toTaskResponses はドメインモデルをレスポンス型に変換する。
// nilスライスでも空のJSON配列として返す。
func toTaskResponses(tasks []*model.Task) []taskResponse {
	responses := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, taskResponse{
			ID:          t.ID,
			Title:       t.Title,
			Content:     t.Content,
			IsCompleted: t.IsCompleted,
			CreatedAt:   t.CreatedAt,
		})
	}
	return responses
}

// ListPending は未完了タスクの一覧を取得する。
// GET /
// タスクが1件もない場合も200で空配列を返す。
func (h *TaskHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	tasks, err := h.service.ListPending(r.Context(), ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTaskResponses(tasks))
}

// ListCompleted は完了済みタスクの一覧を取得する。
// GET /completed
func (h *TaskHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	tasks, err := h.service.ListCompleted(r.Context(), ownerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTaskResponses(tasks))
}

// Add はタスクを作成する。
// POST /add
// 作成した行のIDは返さない。必要な場合は一覧を再取得すること。
func (h *TaskHandler) Add(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req addTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	if err := h.service.Create(r.Context(), ownerID, req.Title, req.Content); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordTaskCreated()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "タスクを作成しました。",
	})
}

// Done はタスクを完了にする。
// PATCH /done
func (h *TaskHandler) Done(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req doneTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	if err := h.service.MarkComplete(r.Context(), ownerID, req.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordTaskCompleted()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "タスクを完了にしました。",
	})
}

// Edit はタスクのタイトルと本文を更新する。完了フラグは変更しない。
// PATCH /edit
func (h *TaskHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req editTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	if err := h.service.Update(r.Context(), ownerID, req.ID, req.Title, req.Content); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "タスクを更新しました。",
	})
}

// Remove はタスクを削除する。
// DELETE /completed/delete
func (h *TaskHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ownerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req deleteTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, req.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "タスクを削除しました。",
	})
}

// --- エラーレスポンスヘルパー ---

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIError以外のエラー（ストア障害等）はログに記録し、
// 詳細を漏らさない一般的な500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードに対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeTaskNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeAuthFailed:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
