package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Social    SocialConfig    `koanf:"social"`
	Messages  MessagesConfig  `koanf:"messages"`
	Push      PushConfig      `koanf:"push"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Addr           string   `koanf:"addr" env:"SERVER_ADDR"`
	AllowedOrigins []string `koanf:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

type DatabaseConfig struct {
	// mysql, postgres or sqlite
	Driver       string `koanf:"driver" env:"DB_DRIVER"`
	DSN          string `koanf:"dsn" env:"DB_DSN"`
	MaxOpenConns int    `koanf:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns int    `koanf:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret" env:"JWT_SECRET"`
	// Token lifetime in hours.
	TokenTTL int `koanf:"token_ttl" env:"JWT_TTL_HOURS"`
}

func (a AuthConfig) TokenTTLDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Hour
}

// SocialConfig holds the limits of the friend system. Durations are in seconds.
type SocialConfig struct {
	MaxFriends          int  `koanf:"max_friends" env:"SOCIAL_MAX_FRIENDS"`
	RequestTimeout      int  `koanf:"request_timeout" env:"SOCIAL_REQUEST_TIMEOUT"`
	SweepInterval       int  `koanf:"sweep_interval" env:"SOCIAL_SWEEP_INTERVAL"`
	NotifyFriendOnline  bool `koanf:"notify_friend_online" env:"SOCIAL_NOTIFY_FRIEND_ONLINE"`
	NotifyFriendOffline bool `koanf:"notify_friend_offline" env:"SOCIAL_NOTIFY_FRIEND_OFFLINE"`
	TeleportEnabled     bool `koanf:"teleport_enabled" env:"SOCIAL_TELEPORT_ENABLED"`
	TeleportCooldown    int  `koanf:"teleport_cooldown" env:"SOCIAL_TELEPORT_COOLDOWN"`
}

func (s SocialConfig) RequestTTL() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

func (s SocialConfig) TeleportWindow() time.Duration {
	return time.Duration(s.TeleportCooldown) * time.Second
}

func (s SocialConfig) SweepEvery() time.Duration {
	return time.Duration(s.SweepInterval) * time.Second
}

// MessagesConfig holds user-facing templates. {PLAYER} is replaced with a display name and
// &<code> colour markup is translated to ColorPrefix<code>.
type MessagesConfig struct {
	ColorPrefix       string `koanf:"color_prefix"`
	FriendAdded       string `koanf:"friend_added"`
	FriendRemoved     string `koanf:"friend_removed"`
	FriendOnline      string `koanf:"friend_online"`
	FriendOffline     string `koanf:"friend_offline"`
	RequestSent       string `koanf:"request_sent"`
	RequestReceived   string `koanf:"request_received"`
	RequestDenied     string `koanf:"request_denied"`
	RequestDuplicate  string `koanf:"request_already_sent"`
	RequestNotFound   string `koanf:"request_not_found"`
	RequestExpired    string `koanf:"request_expired"`
	MaxFriends        string `koanf:"max_friends_reached"`
	AlreadyFriends    string `koanf:"already_friends"`
	NotFriend         string `koanf:"not_a_friend"`
	Blocked           string `koanf:"blocked"`
	PlayerBlocked     string `koanf:"player_blocked"`
	PlayerUnblocked   string `koanf:"player_unblocked"`
	AlreadyBlocked    string `koanf:"already_blocked"`
	NotBlocked        string `koanf:"not_blocked"`
	CannotTargetSelf  string `koanf:"cannot_target_self"`
	PlayerOffline     string `koanf:"player_offline"`
	TeleportDisabled  string `koanf:"teleport_disabled"`
	TeleportCooldown  string `koanf:"teleport_cooldown"`
	Teleported        string `koanf:"teleported"`
	PrivateMessageIn  string `koanf:"private_message_in"`
	PrivateMessageOut string `koanf:"private_message_out"`
}

type PushConfig struct {
	Enabled         bool   `koanf:"enabled" env:"PUSH_ENABLED"`
	CredentialsFile string `koanf:"credentials_file" env:"PUSH_CREDENTIALS_FILE"`
}

type MetricsConfig struct {
	Enabled  bool   `koanf:"enabled" env:"METRICS_ENABLED"`
	Path     string `koanf:"path"`
	User     string `koanf:"user" env:"METRICS_USER"`
	Password string `koanf:"password" env:"METRICS_PASS"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" env:"RATE_LIMIT_RPS"`
	Burst             int     `koanf:"burst" env:"RATE_LIMIT_BURST"`
}

type LogConfig struct {
	Level       string `koanf:"level" env:"LOG_LEVEL"`
	Development bool   `koanf:"development" env:"LOG_DEVELOPMENT"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:       "mysql",
			DSN:          "root:root@tcp(localhost:3306)/socialgraph?charset=utf8mb4&clientFoundRows=true",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{
			JWTSecret: "socialgraph-secret-key-change-in-production",
			TokenTTL:  24 * 7,
		},
		Social: SocialConfig{
			MaxFriends:          50,
			RequestTimeout:      60,
			SweepInterval:       60,
			NotifyFriendOnline:  true,
			NotifyFriendOffline: true,
			TeleportEnabled:     true,
			TeleportCooldown:    30,
		},
		Messages: MessagesConfig{
			ColorPrefix:       "§",
			FriendAdded:       "&aYou and {PLAYER} are now friends!",
			FriendRemoved:     "&cYou removed {PLAYER} from your friends",
			FriendOnline:      "&aYour friend {PLAYER} is online!",
			FriendOffline:     "&7Your friend {PLAYER} went offline",
			RequestSent:       "&aFriend request sent to {PLAYER}!",
			RequestReceived:   "&e{PLAYER} wants to be your friend! Accept it with /friend accept {PLAYER}",
			RequestDenied:     "&cYou denied the friend request from {PLAYER}",
			RequestDuplicate:  "&cYou already sent a friend request to {PLAYER}!",
			RequestNotFound:   "&cThere is no friend request from {PLAYER}!",
			RequestExpired:    "&cThe friend request from {PLAYER} has expired!",
			MaxFriends:        "&cYou have reached the maximum number of friends!",
			AlreadyFriends:    "&cYou are already friends with {PLAYER}!",
			NotFriend:         "&c{PLAYER} is not your friend!",
			Blocked:           "&cYou cannot interact with {PLAYER} because one of you is blocked",
			PlayerBlocked:     "&cAdded {PLAYER} to your blacklist",
			PlayerUnblocked:   "&aRemoved {PLAYER} from your blacklist",
			AlreadyBlocked:    "&c{PLAYER} is already on your blacklist!",
			NotBlocked:        "&c{PLAYER} is not on your blacklist!",
			CannotTargetSelf:  "&cYou cannot do that to yourself!",
			PlayerOffline:     "&c{PLAYER} is not online!",
			TeleportDisabled:  "&cTeleporting to friends is disabled!",
			TeleportCooldown:  "&cTeleport is on cooldown! Please wait {SECONDS} seconds",
			Teleported:        "&aTeleported to {PLAYER}!",
			PrivateMessageIn:  "&d[PM] &f{PLAYER} &7-> &fyou: &r{MESSAGE}",
			PrivateMessageOut: "&d[PM] &fyou &7-> &f{PLAYER}: &r{MESSAGE}",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file and the environment.
// A missing file at path is not an error; an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			k := koanf.New(".")
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
			if err := k.Unmarshal("", cfg); err != nil {
				return nil, fmt.Errorf("error unmarshaling config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	s := c.Social
	check(s.MaxFriends >= 1 && s.MaxFriends <= 500, "social.max_friends must be within 1..500, got %d", s.MaxFriends)
	check(s.RequestTimeout >= 10 && s.RequestTimeout <= 3600, "social.request_timeout must be within 10..3600, got %d", s.RequestTimeout)
	check(s.TeleportCooldown >= 0 && s.TeleportCooldown <= 3600, "social.teleport_cooldown must be within 0..3600, got %d", s.TeleportCooldown)
	check(s.SweepInterval >= 1, "social.sweep_interval must be positive, got %d", s.SweepInterval)

	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		check(false, "database.driver %q is not supported", c.Database.Driver)
	}
	check(c.Database.DSN != "", "database.dsn must not be empty")
	check(c.Auth.JWTSecret != "", "auth.jwt_secret must not be empty")
	check(c.Auth.TokenTTL > 0, "auth.token_ttl must be positive, got %d", c.Auth.TokenTTL)
	check(!c.Push.Enabled || c.Push.CredentialsFile != "", "push.credentials_file is required when push is enabled")
	check(c.RateLimit.RequestsPerSecond >= 0, "rate_limit.requests_per_second must not be negative")

	m := c.Messages
	templates := map[string]string{
		"friend_added":         m.FriendAdded,
		"friend_removed":       m.FriendRemoved,
		"friend_online":        m.FriendOnline,
		"friend_offline":       m.FriendOffline,
		"request_sent":         m.RequestSent,
		"request_received":     m.RequestReceived,
		"request_denied":       m.RequestDenied,
		"max_friends_reached":  m.MaxFriends,
		"already_friends":      m.AlreadyFriends,
		"blocked":              m.Blocked,
		"player_blocked":       m.PlayerBlocked,
		"player_unblocked":     m.PlayerUnblocked,
		"request_already_sent": m.RequestDuplicate,
		"request_not_found":    m.RequestNotFound,
		"request_expired":      m.RequestExpired,
		"not_a_friend":         m.NotFriend,
	}
	for key, tmpl := range templates {
		check(tmpl != "", "messages.%s must not be empty", key)
	}

	return errors.Join(errs...)
}
