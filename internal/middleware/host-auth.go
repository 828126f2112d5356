package middleware

import (
	"context"
	"net/http"

	"github.com/PI304/PinTalk-API/internal/entity"
	app_error "github.com/PI304/PinTalk-API/internal/errors"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
)

type hostKey string

const HostKey hostKey = "authenticatedHost"

// HostAuth resolves the calling host from the widget credential headers.
// Every chatroom REST endpoint sits behind it.
func HostAuth(repo chatroom_repo.ChatroomRepoContract) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessKey := r.Header.Get("X-ChatBox-Access-Key")
			secretKey := r.Header.Get("X-ChatBox-Secret-Key")
			if accessKey == "" || secretKey == "" {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Missing ChatBox credential headers", "auth"))
				return
			}

			host, appErr := repo.FindHostByKeys(r.Context(), accessKey, secretKey)
			if appErr != nil {
				writeAppError(w, app_error.NewAppError(http.StatusUnauthorized, "Invalid ChatBox credentials", "auth"))
				return
			}

			ctx := context.WithValue(r.Context(), HostKey, host)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HostFromContext returns the host resolved by HostAuth, or nil when the
// request skipped it.
func HostFromContext(ctx context.Context) *entity.Host {
	host, ok := ctx.Value(HostKey).(*entity.Host)
	if !ok {
		return nil
	}
	return host
}

func writeAppError(w http.ResponseWriter, appErr *app_error.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_ = appErr.JSON(w)
}
