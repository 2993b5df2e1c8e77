package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override values from config.toml.
const (
	EnvClientID    = "MERGEMIX_CLIENT_ID"
	EnvRedirectURI = "MERGEMIX_REDIRECT_URI"
	EnvMarket      = "MERGEMIX_MARKET"
	EnvDBPath      = "MERGEMIX_DB_PATH"
	EnvLogLevel    = "MERGEMIX_LOG_LEVEL"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Merge    MergeConfig    `toml:"merge"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig contains the public client registration and API settings.
//
// PKCE clients have no secret, so only the client id and redirect URI are needed.
type SpotifyConfig struct {
	ClientID          string  `toml:"client_id"`
	RedirectURI       string  `toml:"redirect_uri"`
	Market            string  `toml:"market"`
	SearchLimit       int     `toml:"search_limit"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	APIURL            string  `toml:"api_url"`
	AccountsURL       string  `toml:"accounts_url"`
}

// MergeConfig contains merge engine and playlist creation settings.
type MergeConfig struct {
	RequiredArtists   int    `toml:"required_artists"`
	TracksPerArtist   int    `toml:"tracks_per_artist"`
	Description       string `toml:"description"`
	RollbackOnFailure bool   `toml:"rollback_on_failure"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Endpoint returns the OAuth2 endpoint for the Spotify Accounts service.
//
// Clients without a secret must send client_id in the form body, hence [oauth2.AuthStyleInParams].
func (s SpotifyConfig) Endpoint() oauth2.Endpoint {
	if s.AccountsURL == "" {
		return oauth2.Endpoint{
			AuthURL:   spotifyauth.AuthURL,
			TokenURL:  spotifyauth.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		}
	}

	base := strings.TrimRight(s.AccountsURL, "/")
	return oauth2.Endpoint{
		AuthURL:   base + "/authorize",
		TokenURL:  base + "/api/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// LoadConfig reads a TOML configuration file on top of [DefaultConfig].
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ResolveConfig loads path when it exists, falls back to defaults otherwise,
// and applies environment overrides (including a .env file in the working directory).
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	config.ApplyEnv(os.Getenv)
	return config, nil
}

// LoadEnvFile loads KEY=value pairs into the process environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values with non-empty environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvClientID); v != "" {
		c.Spotify.ClientID = v
	}
	if v := getenv(EnvRedirectURI); v != "" {
		c.Spotify.RedirectURI = v
	}
	if v := getenv(EnvMarket); v != "" {
		c.Spotify.Market = v
	}
	if v := getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate reports the first setting that prevents talking to Spotify.
func (c *Config) Validate() error {
	switch {
	case c.Spotify.ClientID == "":
		return fmt.Errorf("%w: spotify.client_id is required (or set %s)", ErrInvalidConfig, EnvClientID)
	case c.Spotify.RedirectURI == "":
		return fmt.Errorf("%w: spotify.redirect_uri is required (or set %s)", ErrInvalidConfig, EnvRedirectURI)
	case c.Merge.RequiredArtists < 1:
		return fmt.Errorf("%w: merge.required_artists must be at least 1", ErrInvalidConfig)
	case c.Merge.TracksPerArtist < 1:
		return fmt.Errorf("%w: merge.tracks_per_artist must be at least 1", ErrInvalidConfig)
	case c.Spotify.RequestsPerSecond < 0:
		return fmt.Errorf("%w: spotify.requests_per_second cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
