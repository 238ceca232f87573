package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tnze/go-mc/net"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
	"github.com/skyezerfox/bungeeguard/config"
	"github.com/skyezerfox/bungeeguard/connection"
	"github.com/skyezerfox/bungeeguard/guard"
)

var cfg *config.Config

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func newAuditLogger() *logrus.Logger {
	lg := logrus.New()
	lg.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	lg.Level = logrus.InfoLevel
	if cfg.Audit.File == "" {
		return lg
	}

	f, err := os.OpenFile(cfg.Audit.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Err(err).Str("file", cfg.Audit.File).Msg("Failed to open audit log, writing it to stderr")
		return lg
	}
	lg.Out = f
	lg.Formatter = &logrus.TextFormatter{DisableColors: true, FullTimestamp: true}
	return lg
}

func main() {
	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
		log.Err(err).Msg("Failed to set up error reporting")
	}
	defer sentry.Flush(2 * time.Second)

	tokens := guard.NewTokenSet(cfg.AllowedTokens...)
	if !tokens.Seeded() {
		log.Warn().Msg("No allowed tokens configured - the first token seen will be trusted and saved")
	}

	store := config.NewTokenFile(cfg.File)
	defer store.Close()

	gk := guard.New(tokens,
		guard.WithMessages(cfg.KickMessages()),
		guard.WithStore(store),
		guard.WithAuditor(guard.NewAuditLog(newAuditLogger())),
	)

	cm := connection.NewConnectionManager(gk, connection.Options{
		Backend:          cfg.Backend.String(),
		HandshakeTimeout: cfg.Handshake.Timeout,
		MOTD:             cfg.Server.MOTD,
		MaxPlayers:       cfg.Server.MaxPlayers,
	})

	log.Info().Int("port", cfg.Listener.Port).Str("backend", cfg.Backend.String()).Int("tokens", tokens.Len()).Msg("Starting BungeeGuard...")

	listener, err := net.ListenMC(cfg.Listener.String())
	if err != nil {
		log.Fatal().Err(err).Msgf("Unable to listen on port %d", cfg.Listener.Port)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cm.Close()
		_ = listener.Close()
	}()

	if err := cm.Serve(listener); err != nil {
		log.Err(err).Msg("Listener failed")
	}

	store.Flush()
	s := gk.Stats()
	log.Info().
		Int64("accepted", s.Accepted).
		Int64("learned", s.Learned).
		Int64("malformed", s.Malformed).
		Int64("no_properties", s.NoProperties).
		Int64("invalid_token", s.InvalidToken).
		Msg("Stopped")
}
