package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/PI304/PinTalk-API/config"
	chatroom_handler "github.com/PI304/PinTalk-API/internal/handlers/chatroom-handler"
	"github.com/PI304/PinTalk-API/internal/hotcache"
	"github.com/PI304/PinTalk-API/internal/lifecycle"
	"github.com/PI304/PinTalk-API/internal/queue"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
	"github.com/PI304/PinTalk-API/internal/routers"
	"github.com/PI304/PinTalk-API/internal/websocket"
	"github.com/PI304/PinTalk-API/internal/worker"
	"github.com/PI304/PinTalk-API/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	repo := chatroom_repo.NewChatroomRepo(appState)
	cache := hotcache.NewStore(appState.Redis)
	rooms := lifecycle.NewManager(repo, cache)
	producer := queue.NewProducer(appState.Redis)

	hub := websocket.NewHub()
	defer hub.Close()
	log.Info().Msg("Websocket hub initialized")

	authFunc := websocket.JWTAuthenticator(appState.JwtPublic, repo)

	chatWS := websocket.NewChatHandler(hub, cache, rooms, repo, producer, authFunc, websocket.ChatHandlerConfig{
		BacklogWindow:    config.Conf.CHAT.BacklogWindow,
		BacklogLimit:     int64(config.Conf.CHAT.BacklogLimit),
		MaxMessageLen:    config.Conf.CHAT.MaxMessageLen,
		HandshakeTimeout: config.Conf.CHAT.HandshakeTimeout,
	})
	statusWS := websocket.NewStatusHandler(hub, cache, repo, authFunc, config.Conf.CHAT.HandshakeTimeout)

	chatrooms := chatroom_handler.NewChatroomHandler(appState, repo, rooms, hub, int64(config.Conf.CHAT.PinLimit))

	r := routers.NewRouter(chatrooms, chatWS, statusWS)

	workerPool := worker.NewWorkerPool(appState.Redis, config.Conf.CHAT.WorkerCount, repo)
	go workerPool.Start(ctx)

	server := &http.Server{
		Addr:         config.Conf.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Graceful shutdown failed: %v\n", err)
	} else {
		fmt.Println("Server exited gracefully.")
	}
	workerPool.Stop()
}
