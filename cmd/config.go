package cmd

import "time"

// Config carries the runtime settings of the dispatch service, read from
// the environment by the application entry point.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret string
	TokenTTL  time.Duration

	// AmqpURL is optional. When empty, status events are not forwarded to
	// the message broker.
	AmqpURL      string
	AmqpExchange string

	WorkRadiusKm  float64
	OfferTTL      time.Duration
	StatusTimeout time.Duration
}
