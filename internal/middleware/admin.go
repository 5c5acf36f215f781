package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// WhitelistChecker は管理者ホワイトリストの照合に必要なインターフェース。
// access.Serviceの部分集合として定義する。
type WhitelistChecker interface {
	IsWhitelisted(ctx context.Context, email string) (bool, error)
}

// NewAdminMiddleware は管理者ゲートのミドルウェアを返す。
// Admin役割を持ち、かつメールアドレスがホワイトリストに登録された
// 認証主体のみを通過させる。二重の照合により、役割だけが書き換えられた
// アカウントでは管理操作を実行できない。
func NewAdminMiddleware(checker WhitelistChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := ActorFromContext(r.Context())
			if err != nil {
				writeUnauthorized(w)
				return
			}

			if actor.Role != model.RoleAdmin {
				WriteErrorResponse(w, http.StatusForbidden, model.NewRoleForbiddenError(model.RoleAdmin))
				return
			}

			whitelisted, err := checker.IsWhitelisted(r.Context(), actor.Email)
			if err != nil {
				slog.Error("ホワイトリストの照合に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if !whitelisted {
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:     model.ErrCodeNotWhitelisted,
					Message:  "管理者ホワイトリストに登録されていません。",
					Category: "auth",
					Action:   "システムマスターに登録を依頼してください。",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
