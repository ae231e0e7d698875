package main

import (
	"fmt"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"net/http"
	"time"
)

// Development stand-in for the central inventory API.
func main() {
	_ = godotenv.Load()
	viper.SetDefault("port", 3000)
	viper.SetDefault("token-ttl", time.Hour)
	_ = viper.BindEnv("port", "STUB_PORT")
	_ = viper.BindEnv("jwt-secret", "JWT_SECRET")

	secret := viper.GetString("jwt-secret")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	log.SetLevel(log.DebugLevel)

	api := newStubApi(secret, viper.GetDuration("token-ttl"))
	port := viper.GetInt("port")
	log.Printf("Stub API starting on port %v", port)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
