// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, state, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	// NotFound系
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeCollectiveNotFound = "COLLECTIVE_NOT_FOUND"
	ErrCodeConnectionNotFound = "CONNECTION_NOT_FOUND"
	ErrCodeRequestNotFound    = "REQUEST_NOT_FOUND"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodePaymentNotFound    = "PAYMENT_NOT_FOUND"

	// Forbidden系
	ErrCodeRoleForbidden   = "ROLE_FORBIDDEN"
	ErrCodeNotParticipant  = "NOT_PARTICIPANT"
	ErrCodeNotMember       = "NOT_MEMBER"
	ErrCodeNotWhitelisted  = "NOT_WHITELISTED"
	ErrCodeAccountInStasis = "ACCOUNT_IN_STASIS"
	ErrCodeMasterProtected = "MASTER_PROTECTED"

	// BadRequest系
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeDuplicateName      = "DUPLICATE_NAME"
	ErrCodeMissingAssets      = "MISSING_ASSETS"
	ErrCodeEmptyMemberList    = "EMPTY_MEMBER_LIST"
	ErrCodeTooManyServices    = "TOO_MANY_SERVICES"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeSelfRequest        = "SELF_REQUEST"
	ErrCodeDuplicateRequest   = "DUPLICATE_REQUEST"
	ErrCodeAlreadyProcessed   = "ALREADY_PROCESSED"
	ErrCodeUnsafeURL          = "UNSAFE_URL"
	ErrCodeAlreadyWhitelisted = "ALREADY_WHITELISTED"
)

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "state",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewCollectiveNotFoundError はコレクティブ未検出エラーを生成する。
func NewCollectiveNotFoundError(collectiveID string) *APIError {
	return &APIError{
		Code:     ErrCodeCollectiveNotFound,
		Message:  fmt.Sprintf("指定されたコレクティブが見つかりません: %s", collectiveID),
		Category: "state",
		Action:   "コレクティブIDを確認してください。",
	}
}

// NewConnectionNotFoundError はコネクション未検出エラーを生成する。
func NewConnectionNotFoundError(connectionID string) *APIError {
	return &APIError{
		Code:     ErrCodeConnectionNotFound,
		Message:  fmt.Sprintf("指定されたセキュアラインが見つかりません: %s", connectionID),
		Category: "state",
		Action:   "コネクションIDを確認してください。",
	}
}

// NewRequestNotFoundError はミッション依頼未検出エラーを生成する。
func NewRequestNotFoundError(requestID string) *APIError {
	return &APIError{
		Code:     ErrCodeRequestNotFound,
		Message:  fmt.Sprintf("指定されたミッション依頼が見つかりません: %s", requestID),
		Category: "state",
		Action:   "依頼IDを確認してください。",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("指定された投稿が見つかりません: %s", postID),
		Category: "state",
		Action:   "投稿IDを確認してください。",
	}
}

// NewPaymentNotFoundError はレシート未検出エラーを生成する。
func NewPaymentNotFoundError(paymentID string) *APIError {
	return &APIError{
		Code:     ErrCodePaymentNotFound,
		Message:  fmt.Sprintf("指定されたレシートが見つかりません: %s", paymentID),
		Category: "state",
		Action:   "レシートIDを確認してください。",
	}
}

// NewRoleForbiddenError は役割不一致エラーを生成する。
func NewRoleForbiddenError(required Role) *APIError {
	return &APIError{
		Code:     ErrCodeRoleForbidden,
		Message:  fmt.Sprintf("この操作には %s 役割が必要です。", required),
		Category: "auth",
		Action:   "役割アップグレードを申請してください。",
	}
}

// NewNotParticipantError はコネクション参加者以外によるアクセスエラーを生成する。
func NewNotParticipantError() *APIError {
	return &APIError{
		Code:     ErrCodeNotParticipant,
		Message:  "このセキュアラインの参加者ではありません。",
		Category: "auth",
		Action:   "自分が参加しているコネクションのみ操作できます。",
	}
}

// NewNotMemberError は招待されていないメンバーによる承諾エラーを生成する。
func NewNotMemberError() *APIError {
	return &APIError{
		Code:     ErrCodeNotMember,
		Message:  "このコレクティブの招待対象メンバーではありません。",
		Category: "auth",
		Action:   "招待通知を確認してください。",
	}
}

// NewInvalidStateError は状態遷移不正エラーを生成する。
func NewInvalidStateError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidState,
		Message:  message,
		Category: "state",
		Action:   "現在の状態を確認してから再度お試しください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(code, message string) *APIError {
	return &APIError{
		Code:     code,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}
