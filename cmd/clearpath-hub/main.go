package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clearpath/internal/api"
	"clearpath/internal/broadcast"
	"clearpath/internal/config"
	"clearpath/internal/health"
	"clearpath/internal/hub"
	"clearpath/internal/ingest"
	"clearpath/internal/ledger"
	"clearpath/internal/rpc/codec"
	"clearpath/internal/rpc/eventbus"

	"google.golang.org/grpc"
)

func main() {
	cfg := config.Load()

	store, err := ledger.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}
	defer store.Close()
	if err := store.Init(context.Background()); err != nil {
		log.Fatalf("init ledger: %v", err)
	}
	journal := ledger.NewJournal(store)

	h := hub.New(hub.Options{
		SendQueueSize: cfg.SendQueueSize,
		WriteTimeout:  cfg.WriteTimeout,
		Auditor:       journal,
	})
	dispatcher := broadcast.New(h, journal)

	codec.Register()
	grpcServer := grpc.NewServer(grpc.ForceServerCodec(codec.JSONCodec{}))
	eventbus.RegisterEventBusServer(grpcServer, ingest.NewServer(h, dispatcher))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen grpc %s: %v", cfg.GRPCAddr, err)
	}
	go func() {
		log.Printf("eventbus listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Printf("grpc serve stopped: %v", err)
		}
	}()

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	monitor := health.NewMonitor(h, dispatcher, cfg.HealthInterval)
	go monitor.Run(monitorCtx)

	httpServer := api.New(cfg.HTTPAddr, h, store, api.Options{
		AdminToken:      cfg.AdminToken,
		MaxMessageBytes: cfg.MaxMessageBytes,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal=%s", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http serve stopped: %v", err)
		}
	}

	cancelMonitor()
	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	journal.Close()
}
