package main

import (
	"context"
	"errors"
	"fmt"
	ctx "github.com/Alcereo/inventory-gateway/pkg/context"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Loading .env file error: %v", err)
	}

	configInit()
	config := loadConfig()
	setupLogging(config.LogLevel)

	bytes, _ := yaml.Marshal(config)
	log.Tracef("Resolved config:\n%+v", string(bytes))

	context := ctx.NewContext()
	context.SetupSecurity(config.JwtSecret, nil)
	context.SetupUpstream(config.ApiUrl, config.UpstreamTimeoutSeconds)
	context.SetupRouters(config.Routers)
	context.SetupGatewayFilters(config.Filters)

	server := context.BuildServer(config.Port)
	go func() {
		log.Printf("Server starting on port %v", config.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	waitForShutdown(server)
}

func waitForShutdown(server *http.Server) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}
}

func setupLogging(logLevel ctx.LogLevel) {
	log.SetFormatter(&log.TextFormatter{
		ForceColors: true,
	})

	switch logLevel {
	case ctx.Info:
		log.SetLevel(log.InfoLevel)
	case ctx.Debug:
		log.SetLevel(log.DebugLevel)
	case ctx.Trace:
		log.SetLevel(log.TraceLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

func loadConfig() *ctx.GatewayConfiguration {
	_ = viper.BindEnv("api-url", "NEXT_PUBLIC_API_URL")
	_ = viper.BindEnv("jwt-secret", "JWT_SECRET")
	_ = viper.BindEnv("port", "PORT")
	_ = viper.BindEnv("log-level", "LOG_LEVEL")

	var config ctx.GatewayConfiguration
	err := viper.Unmarshal(&config)
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}

	// Unmarshal skips env-only keys on older viper releases.
	config.ApiUrl = viper.GetString("api-url")
	config.JwtSecret = viper.GetString("jwt-secret")
	config.Port = viper.GetInt("port")
	config.LogLevel = ctx.LogLevel(viper.GetString("log-level"))

	if config.JwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	return &config
}

func configInit() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./cmd/gateway")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("api-url", "http://localhost:3000")
	viper.SetDefault("upstream-timeout-seconds", 0)

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
}
