package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardroom/gateway/internal/auth"
	"cardroom/gateway/internal/config"
	"cardroom/gateway/internal/httpapi"
	"cardroom/gateway/internal/lobby"
	"cardroom/gateway/internal/logging"
	"cardroom/gateway/internal/match"
	"cardroom/gateway/internal/metrics"
	"cardroom/gateway/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.L().Fatal("configuration invalid", logging.Error(err))
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		logging.L().Fatal("logger setup failed", logging.Error(err))
	}
	logging.ReplaceGlobals(log)

	verifier, err := auth.NewVerifier(cfg.AuthSecret, 30*time.Second)
	if err != nil {
		log.Fatal("auth setup failed", logging.Error(err))
	}

	registry := prometheus.NewRegistry()
	set := metrics.New(registry)

	directory := match.NewDirectory()
	bans := match.NewBanList()

	sessions := session.NewRegistry(set, log)
	codec := session.NewCodec(nil)
	router := session.NewRouter(session.RouterOptions{
		Directory:     directory,
		Registry:      sessions,
		ActionLimiter: session.NewRateLimiter(cfg.ActionInterval, nil),
		ChatLimiter:   session.NewRateLimiter(cfg.ChatInterval, nil),
		Codec:         codec,
		Metrics:       set,
		Logger:        log,
		ChatMaxLength: cfg.ChatMaxLength,
	})

	gateway := session.NewGateway(session.GatewayOptions{
		Verifier:       verifier,
		Bans:           bans,
		Directory:      directory,
		Registry:       sessions,
		Router:         router,
		Codec:          codec,
		Metrics:        set,
		Logger:         log,
		ReadLimitBytes: cfg.ReadLimitBytes,
		PingInterval:   cfg.PingInterval,
		JournalDir:     cfg.JournalDir,
		CheckOrigin:    cfg.OriginAllowed,
	})

	hub := lobby.NewHub(lobby.HubOptions{
		Verifier:      verifier,
		Bans:          bans,
		Metrics:       set,
		Logger:        log,
		ChatLimit:     cfg.LobbyChatLimit,
		ChatWindow:    cfg.LobbyChatWindow,
		ChatMaxLength: cfg.ChatMaxLength,
		ReadLimit:     cfg.ReadLimitBytes,
		PingInterval:  cfg.PingInterval,
		CheckOrigin:   cfg.OriginAllowed,
	})

	ops := httpapi.NewHandlers(cfg.AdminToken, httpapi.StatsSource{
		Sessions:     sessions.Counts,
		Matches:      directory.Len,
		LobbyMembers: hub.Count,
	}, log, nil)

	routes := mux.NewRouter()
	gateway.Register(routes)
	routes.HandleFunc("/ws/lobby", hub.HandleLobby)
	ops.Register(routes)
	routes.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           routes,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("gateway listening", logging.String("addr", cfg.Address))
		errs <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("shutting down", logging.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warn("shutdown incomplete", logging.Error(err))
		}
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", logging.Error(err))
		}
	}
}
