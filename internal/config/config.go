// Package config loads the Server.toml game server configuration and the
// YAML lobby service configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Lobby capacity bounds. The host can start a game at MinPlayerCount;
// reaching MaxPlayerCount starts it automatically.
const (
	MinPlayerCount = 2
	MaxPlayerCount = 8
)

// DefaultServerPort is the game server's TCP port.
const DefaultServerPort = 25580

// GameServer holds the game server configuration, read from Server.toml.
// The timer values tune cosmetic waits only; the engine enforces its own
// decision/snap/confirmation deadlines.
type GameServer struct {
	SnapTimeSecs      int    `toml:"snap_time_secs"`
	NewRoundTimerSecs int    `toml:"new_round_timer_secs"`
	ShowAllCooldown   int    `toml:"show_all_cooldown"`
	ServerPort        uint16 `toml:"server_port"`

	// Discovery, when present, makes the server advertise itself to the
	// lobby-discovery HTTP service before accepting players.
	Discovery *Discovery `toml:"discovery"`
}

// Discovery configures registration with the lobby-discovery service.
type Discovery struct {
	URL           string `toml:"url"`
	Username      string `toml:"username"`
	Password      string `toml:"password"`
	GameName      string `toml:"game_name"`
	Visibility    string `toml:"visibility"`
	AdvertiseAddr string `toml:"advertise_addr"`
}

// DefaultGameServer returns the game server defaults.
func DefaultGameServer() GameServer {
	return GameServer{
		SnapTimeSecs:      5,
		NewRoundTimerSecs: 60,
		ShowAllCooldown:   1,
		ServerPort:        DefaultServerPort,
	}
}

// LoadGameServer loads game server config from a TOML file.
// If the file doesn't exist, returns defaults.
func LoadGameServer(path string) (GameServer, error) {
	cfg := DefaultGameServer()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// LobbyServer holds all configuration for the lobby-discovery service.
type LobbyServer struct {
	ListenAddr string `yaml:"listen_addr"`

	// JWTSecret signs access and refresh tokens.
	JWTSecret string `yaml:"jwt_secret"`

	// RedisAddr enables the auth-route rate limiter when non-empty.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultLobbyServer returns LobbyServer config with sensible defaults.
func DefaultLobbyServer() LobbyServer {
	return LobbyServer{
		ListenAddr: "0.0.0.0:8080",
		JWTSecret:  "change-me",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "cambio",
			Password: "cambio",
			DBName:   "cambio",
			SSLMode:  "disable",
		},
	}
}

// LoadLobbyServer loads lobby service config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadLobbyServer(path string) (LobbyServer, error) {
	cfg := DefaultLobbyServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
