package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jrsteele09/contract-desk/devapi"
	"github.com/jrsteele09/contract-desk/internal/config"
	"github.com/jrsteele09/contract-desk/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the desk in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(c config.Config, a *app) error {
				displayAppname(c.GetAppName())
				return run(c, a)
			})
		},
	}
}

func devAPICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devapi",
		Short: "Run a local stand-in for the contract API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			backend, err := devapi.NewFromConfig(c)
			if err != nil {
				return err
			}
			httpServer := &http.Server{Addr: c.GetDevAPIPort(), Handler: backend, ReadHeaderTimeout: 10 * time.Second}
			return serveUntilSignal(httpServer)
		},
	}
}

// run serves the desk until a stop signal. A panic is logged and reported
// as an error rather than taking the process down without a trace.
func run(c config.Config, a *app) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	desk, err := server.New(c, server.Deps{
		Auth:      a.auth,
		Contracts: a.contracts,
		Clients:   a.clients,
		Schedule:  a.schedule,
		Metrics:   a.registry,
	}, server.WithOAuthStart(c.GetSocialLoginURL()))
	if err != nil {
		return err
	}

	go func() {
		state := desk.RestoreSession(context.Background())
		log.Info().Stringer("state", state).Msg("session restored")
	}()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: desk, ReadHeaderTimeout: 10 * time.Second}
	return serveUntilSignal(httpServer)
}

func serveUntilSignal(httpServer *http.Server) error {
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(httpServer)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errs:
		return err
	case <-stop:
	}
	if err := shutdown(httpServer); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
