package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gitlab.com/dirk.krummacker/contacts-api/internal/config"
	"gitlab.com/dirk.krummacker/contacts-api/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-api/internal/service"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"go.uber.org/zap"
)

// Usage example on the command line:
// > CONTACTS_DATABASE_USER=dirk CONTACTS_DATABASE_PASSWORD=bullo92 GIN_MODE=release go run main.go
// > CONTACTS_DATABASE_DRIVER=memory go run main.go
// > go run main.go -config=config.yaml
func main() {
	configFile := flag.String("config", "", "optional YAML configuration file")
	flag.Parse()

	// A missing .env file is fine, the environment may already be set up.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Println("could not read .env file", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Println("could not load configuration", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Production)
	if err != nil {
		fmt.Println("could not create logger", err)
		os.Exit(1)
	}
	defer log.Sync()

	st, err := store.Open(cfg.Database)
	if err != nil {
		log.Fatal("could not open store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer st.Close()

	router := service.SetupHttpRouter(st, log, cfg.HTTP)
	server := &http.Server{
		Addr:    cfg.HTTP.Address(),
		Handler: router,
	}
	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Fatal("could not listen", zap.String("addr", server.Addr), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("API running",
		zap.String("addr", server.Addr),
		zap.String("driver", cfg.Database.Driver),
	)
	// The store is closed by the deferred call only after serve has drained all requests.
	if err := serve(ctx, server, listener, log); err != nil {
		log.Error("server failed", zap.Error(err))
	}
}

// serve answers requests on the listener until ctx is cancelled. It then shuts the server down and
// returns only after all in-flight requests have finished.
func serve(ctx context.Context, server *http.Server, listener net.Listener, log *zap.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}
