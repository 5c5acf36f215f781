package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// UserFinder はステイシス判定に必要なユーザー取得のインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewStasisGateMiddleware はステイシスゲートのミドルウェアを返す。
// 一時停止中または期限切れのアカウントによるプレミアム操作を403で遮断する。
// 判定は毎回データベースの現在値に対して行い、トークン発行時の状態に依存しない。
// Adminはサブスクリプションの対象外のため常に通過する。
func NewStasisGateMiddleware(userFinder UserFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := ActorFromContext(r.Context())
			if err != nil {
				writeUnauthorized(w)
				return
			}

			if actor.Role == model.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			user, err := userFinder.FindByID(r.Context(), actor.ID)
			if err != nil {
				slog.Error("ステイシス判定用のユーザー取得に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				writeUnauthorized(w)
				return
			}

			if user.IsPaused || user.IsExpired(time.Now()) {
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:     model.ErrCodeAccountInStasis,
					Message:  "アカウントはサブスクリプション失効により一時停止中です。",
					Category: "auth",
					Action:   "D17レシートを提出してアクセスを更新してください。",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
