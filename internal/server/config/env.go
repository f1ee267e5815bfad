package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig maps environment variables onto config fields. TTLs are plain
// integers (minutes for access, days for refresh) to match how deployments
// usually express them.
type envConfig struct {
	EndpointAddr             string `env:"FOLIOAUTH_ADDRESS"`
	DatabaseDSN              string `env:"FOLIOAUTH_DATABASE_DSN"`
	SecretKey                string `env:"FOLIOAUTH_SECRET_KEY"`
	AccessTokenValidityMins  int    `env:"FOLIOAUTH_ACCESS_TTL_MINUTES"`
	RefreshTokenValidityDays int    `env:"FOLIOAUTH_REFRESH_TTL_DAYS"`
	Issuer                   string `env:"FOLIOAUTH_ISSUER"`
	Audience                 string `env:"FOLIOAUTH_AUDIENCE"`
}

// parseEnv overlays environment variables onto the config. Unset variables
// keep the current values.
func parseEnv(config *Config) {
	e := envConfig{}
	if err := env.Parse(&e); err != nil {
		panic(err)
	}

	if e.EndpointAddr != "" {
		config.EndpointAddr = e.EndpointAddr
	}
	if e.DatabaseDSN != "" {
		config.DatabaseDSN = e.DatabaseDSN
	}
	if e.SecretKey != "" {
		config.SecretKey = e.SecretKey
	}
	if e.AccessTokenValidityMins > 0 {
		config.AccessTokenValidityDuration = time.Duration(e.AccessTokenValidityMins) * time.Minute
	}
	if e.RefreshTokenValidityDays > 0 {
		config.RefreshTokenValidityDuration = time.Duration(e.RefreshTokenValidityDays) * 24 * time.Hour
	}
	if e.Issuer != "" {
		config.Issuer = e.Issuer
	}
	if e.Audience != "" {
		config.Audience = e.Audience
	}
}
