package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/reservation/pkg/logger"
)

// MustInit loads .env and config.yaml into viper and installs the default logger.
func MustInit() {
	envErr := godotenv.Load("./.env")
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		panic("error while loading .env file: " + envErr.Error())
	}

	setDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/reservation-svc")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("error while reading config file: " + err.Error())
		}
	}
	SetupLogger()

	if envErr != nil {
		slog.Info("No .env file found, using process environment")
	}
}

// SetupLogger installs the JSON handler from pkg/logger as the slog default.
func SetupLogger() {
	handler := logger.NewHandler(&slog.HandlerOptions{
		Level: logger.ParseLevel(viper.GetString("log.level")),
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}

func setDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "PATCH", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Content-Type", "Idempotency-Key", "traceparent"})
	viper.SetDefault("server.grpc.port", "9090")

	viper.SetDefault("storage.driver", "postgres")

	viper.SetDefault("inventory.url", "http://inventory:8080/api/inventory")

	viper.SetDefault("order_service.scheduler.max_attempts", defaultMaxAttempts)
	viper.SetDefault("order_service.scheduler.max_retry_minutes", int(defaultMaxRetryAge/time.Minute))
	viper.SetDefault("order_service.scheduler.retry_delay_seconds", int(defaultRetryDelay/time.Second))
	viper.SetDefault("order_service.scheduler.retry_rate_ms", int(defaultSweepPeriod/time.Millisecond))
	viper.SetDefault("order_service.scheduler.batch_size", 0)
	viper.SetDefault("inventory.timeout_ms", int(defaultCallTimeout/time.Millisecond))

	viper.SetDefault("events.broker", "none")
	viper.SetDefault("events.destination", "orders.status.changed")
	viper.SetDefault("events.publish_timeout_ms", 1000)
	viper.SetDefault("events.outbox.poll_interval_seconds", 10)
	viper.SetDefault("events.outbox.batch_size", 100)
	viper.SetDefault("events.outbox.max_retries", 5)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.service_name", "reservation-svc")
}
