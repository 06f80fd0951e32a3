package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/frudas24/deskpilot/internal/app"
	"github.com/frudas24/deskpilot/internal/config"
	"github.com/frudas24/deskpilot/internal/webrtc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// run wires the application and blocks until shutdown or restart.
func run(debug bool, staticDir string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(cfg.Level())
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	webrtc.SetDebugLogging(debug)
	logStartup(cfg)

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Stop(); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	mux := http.NewServeMux()
	a.RegisterRoutes(mux, staticDir)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(ctx) }()

	restart := false
	select {
	case <-ctx.Done():
		<-runErr
	case err := <-runErr:
		if !errors.Is(err, app.ErrRestart) {
			return err
		}
		restart = true
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if restart {
		return respawn()
	}
	return nil
}

// respawn starts a fresh copy of this process with the same arguments.
func respawn() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if err := cmd.Start(); err != nil {
		return err
	}
	log.Info().Int("pid", cmd.Process.Pid).Msg("restarted")
	return cmd.Process.Release()
}

// logStartup prints startup checks and connection info.
func logStartup(cfg config.Config) {
	log.Info().Msg("deskpilot starting")
	envPath := filepath.Join(cfg.DataDir, ".env")
	if fileExists(envPath) {
		log.Info().Str("path", envPath).Msg("env file loaded")
	} else {
		log.Info().Str("path", envPath).Msg("env file missing, using environment only")
	}
	log.Info().
		Str("signaling", cfg.SignalingURL).
		Strs("ice", cfg.ICEServers).
		Str("video_sink", cfg.VideoSinkAddr).
		Msg("endpoints")
	logListenStatus(cfg.ListenAddr)
}

// logListenStatus reports the listen address and a local URL helper.
func logListenStatus(addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		log.Info().Str("addr", addr).Msg("listening")
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Info().Str("addr", addr).Str("url", "http://"+net.JoinHostPort(host, port)).Msg("listening")
}

// fileExists reports whether a path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
