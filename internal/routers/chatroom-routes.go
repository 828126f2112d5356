package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/PI304/PinTalk-API/internal/handlers"
	chatroom_handler "github.com/PI304/PinTalk-API/internal/handlers/chatroom-handler"
	"github.com/PI304/PinTalk-API/internal/middleware"
)

func ChatroomRouter(r chi.Router, h *chatroom_handler.ChatroomHandler) {
	r.Get("/api/v1/health", handlers.WrapHandler(h.Health))

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.HostAuth(h.Repo))
		protected.Post("/api/v1/chatrooms", handlers.WrapHandler(h.CreateChatroom))
		protected.Get("/api/v1/chatrooms/host/{accessKey}", handlers.WrapHandler(h.ListChatrooms))
		protected.Get("/api/v1/chatrooms/guest/{guest}", handlers.WrapHandler(h.FindByGuest))
		protected.Post("/api/v1/chatrooms/{roomName}/resume", handlers.WrapHandler(h.ResumeChatroom))
		protected.Post("/api/v1/chatrooms/{roomName}/close", handlers.WrapHandler(h.CloseChatroom))
		protected.Delete("/api/v1/chatrooms/{roomName}", handlers.WrapHandler(h.DeleteChatroom))
		protected.Post("/api/v1/chatrooms/{roomName}/pin", handlers.WrapHandler(h.PinChatroom))
		protected.Delete("/api/v1/chatrooms/{roomName}/pin", handlers.WrapHandler(h.UnpinChatroom))
		protected.Get("/api/v1/chatrooms/{roomName}/export", handlers.WrapHandler(h.ExportChatroom))
	})
}
