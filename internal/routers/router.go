package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	chatroom_handler "github.com/PI304/PinTalk-API/internal/handlers/chatroom-handler"
	"github.com/PI304/PinTalk-API/internal/middleware"
	"github.com/PI304/PinTalk-API/internal/observability"
	"github.com/PI304/PinTalk-API/internal/websocket"
)

func NewRouter(chatrooms *chatroom_handler.ChatroomHandler, chatWS *websocket.ChatHandler, statusWS *websocket.StatusHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)

	ChatroomRouter(r, chatrooms)
	WebsocketRouter(r, chatWS, statusWS)

	r.Handle("/metrics", observability.MetricsHandler())
	return r
}
