package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-wallet/internal/infrastructure/app"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "config file path (default config.yaml)")
	smoke := flag.Bool("smoke", false, "run the ledger smoke test and exit")
	flag.Parse()

	application, err := app.Init(*configPath)
	if err != nil {
		fmt.Printf("app init error: %v\n", err)
		return
	}
	defer application.Close()

	if *smoke {
		runLedgerSmokeTest(context.Background(), application)
		return
	}

	go func() {
		application.Log.Info("http server started", zap.String("addr", application.Server.Addr))
		if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			application.Log.Error("http server stopped", zap.Error(err))
		}
	}()

	application.Log.Info("server is starting", zap.String("env", application.Config.Logger.Env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	s := <-quit
	application.Log.Info("shutting down server", zap.String("signal", s.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := application.Server.Shutdown(ctx); err != nil {
		application.Log.Error("server shutdown failed", zap.Error(err))
	}
	application.Log.Info("server stopped")
}
