package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/PI304/PinTalk-API/internal/websocket"
)

func WebsocketRouter(r chi.Router, chat *websocket.ChatHandler, status *websocket.StatusHandler) {
	r.Get("/ws/chat/{roomName}", chat.HandleChat)
	r.Get("/ws/status/{hostId}", status.HandleStatus)
}
