package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sugarnest/bakery-api/internal/common"
	"github.com/sugarnest/bakery-api/internal/config"
	"github.com/sugarnest/bakery-api/internal/notify"
	"github.com/sugarnest/bakery-api/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisOpts.Addr,
			Username: redisOpts.Username,
			Password: redisOpts.Password,
			DB:       redisOpts.DB,
		},
		asynq.Config{
			Concurrency: envInt("WORKER_CONCURRENCY", 10),
			Logger:      asynqLogger{logger: logger},
		},
	)

	worker := &notify.Worker{
		Email:  newEmailSender(logger),
		Logger: logger,
	}
	mux := asynq.NewServeMux()
	worker.Register(mux)

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	logger.Info().Msg("worker starting")
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

// newEmailSender returns a real sender once SMTP lands. Until then emails go
// to the log in development and nowhere in production.
func newEmailSender(logger zerolog.Logger) common.EmailSender {
	if envBool("NOTIFY_EMAIL_LOG_ONLY", true) {
		return logEmailSender{logger: logger}
	}
	return common.NopEmailSender{}
}

type logEmailSender struct {
	logger zerolog.Logger
}

func (s logEmailSender) Send(to, subject, _ string) error {
	s.logger.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msgf("%v", args) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msgf("%v", args) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msgf("%v", args) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msgf("%v", args) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msgf("%v", args) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
