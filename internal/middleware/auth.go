// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
	"github.com/BilelTheDeveloper/chrikitn-backend/internal/repository"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// actorContextKey はリクエストコンテキストに認証主体を格納するためのキー。
var actorContextKey = contextKey("actor")

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証主体をリクエストコンテキストに注入するミドルウェアを返す。
// トークンはHS256で署名され、subクレームにユーザーIDを持つ。
// 検証後にユーザーの実在を確認するため、削除済みユーザーのトークンは無効になる。
// 未認証リクエストには401 Unauthorizedを返す。
func NewAuthMiddleware(jwtSecret string, userRepo repository.UserRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeUnauthorized(w)
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				writeUnauthorized(w)
				return
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				writeUnauthorized(w)
				return
			}

			user, err := userRepo.FindByID(r.Context(), sub)
			if err != nil {
				slog.Error("認証ユーザーの取得に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				writeUnauthorized(w)
				return
			}

			actor := &model.Actor{
				ID:    user.ID,
				Email: user.Email,
				Role:  user.Role,
			}
			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext はリクエストコンテキストから認証主体を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func ActorFromContext(ctx context.Context) (*model.Actor, error) {
	actor, ok := ctx.Value(actorContextKey).(*model.Actor)
	if !ok || actor == nil {
		return nil, fmt.Errorf("actor not found in context")
	}
	return actor, nil
}

// ContextWithActor は認証主体を格納したコンテキストを返す。テスト用。
func ContextWithActor(ctx context.Context, actor *model.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func writeUnauthorized(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "有効なトークンでログインし直してください。",
	})
}
