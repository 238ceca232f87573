package config

import (
	"fmt"
	"time"

	"github.com/skyezerfox/bungeeguard/guard"
	"github.com/spf13/viper"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Listener Address `mapstructure:"listener"`
	Backend  Address `mapstructure:"backend"`

	Server struct {
		MOTD       string `mapstructure:"motd"`
		MaxPlayers int    `mapstructure:"max_players"`
	} `mapstructure:"server"`

	Handshake struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"handshake"`

	Sentry struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`

	Audit struct {
		File string `mapstructure:"file"`
	} `mapstructure:"audit"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	NoDataKickMessage       string   `mapstructure:"no-data-kick-message"`
	NoPropertiesKickMessage string   `mapstructure:"no-properties-kick-message"`
	InvalidTokenKickMessage string   `mapstructure:"invalid-token-kick-message"`
	AllowedTokens           []string `mapstructure:"allowed-tokens"`

	// File is the config file that was read, and where learned tokens go.
	File string
}

type Address struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listener.host", "")
	v.SetDefault("listener.port", 25565)

	v.SetDefault("backend.host", "localhost")
	v.SetDefault("backend.port", 25566)

	v.SetDefault("server.motd", "A Minecraft Server")
	v.SetDefault("server.max_players", 100)

	v.SetDefault("handshake.timeout", "5s")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("audit.file", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("no-data-kick-message", "&cUnable to authenticate - no data was forwarded by the proxy.")
	v.SetDefault("no-properties-kick-message", "&cUnable to authenticate.")
	v.SetDefault("invalid-token-kick-message", "&cUnable to authenticate.")
	v.SetDefault("allowed-tokens", []string{})
}

// Read loads the named yaml config from dir, writing a sample first if it
// doesn't exist yet.
func Read(v *viper.Viper, name, dir string) (*Config, error) {
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := v.SafeWriteConfig(); err != nil {
			return nil, fmt.Errorf("write sample config: %w", err)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read sample config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.File = v.ConfigFileUsed()
	return &c, nil
}

// Load reads bungeeguard.yml from the working directory using the global
// viper instance.
func Load() (*Config, error) {
	return Read(viper.GetViper(), "bungeeguard", ".")
}

// KickMessages returns the configured kick messages with colour codes
// translated.
func (c *Config) KickMessages() guard.KickMessages {
	return guard.KickMessages{
		NoData:       TranslateColorCodes('&', c.NoDataKickMessage),
		NoProperties: TranslateColorCodes('&', c.NoPropertiesKickMessage),
		InvalidToken: TranslateColorCodes('&', c.InvalidTokenKickMessage),
	}
}
