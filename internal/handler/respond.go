// Package handler はHTTP APIのハンドラー層を提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/middleware"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// decodeJSON はリクエストボディをJSONとして解析する。
// 解析に失敗した場合は400レスポンスを書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return false
	}
	return true
}

// actorFromRequest はリクエストコンテキストから認証主体を取得する。
// 取得できない場合は401レスポンスを書き込み、nilを返す。
func actorFromRequest(w http.ResponseWriter, r *http.Request) *model.Actor {
	actor, err := middleware.ActorFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "有効なトークンでログインし直してください。",
		})
		return nil
	}
	return actor
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUserNotFound, model.ErrCodeCollectiveNotFound,
		model.ErrCodeConnectionNotFound, model.ErrCodeRequestNotFound,
		model.ErrCodePostNotFound, model.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case model.ErrCodeRoleForbidden, model.ErrCodeNotParticipant,
		model.ErrCodeNotMember, model.ErrCodeNotWhitelisted,
		model.ErrCodeAccountInStasis, model.ErrCodeMasterProtected,
		model.ErrCodeUnsafeURL:
		return http.StatusForbidden
	case model.ErrCodeDuplicateName, model.ErrCodeDuplicateRequest,
		model.ErrCodeAlreadyProcessed, model.ErrCodeAlreadyWhitelisted,
		model.ErrCodeInvalidState:
		return http.StatusConflict
	case model.ErrCodeInvalidRequest, model.ErrCodeMissingAssets,
		model.ErrCodeEmptyMemberList, model.ErrCodeTooManyServices,
		model.ErrCodeSelfRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
