package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 所有可配置项
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Session SessionConfig `mapstructure:"session"`
	Relay   RelayConfig   `mapstructure:"relay"`
}

// ServerConfig 本地 HTTP 服务
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	WebDir      string `mapstructure:"web_dir"`
	MobileDir   string `mapstructure:"mobile_dir"`
	OpenBrowser bool   `mapstructure:"open_browser"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SessionConfig 对局会话数量与闲置回收
type SessionConfig struct {
	MaxSessions int           `mapstructure:"max_sessions"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	PruneEvery  time.Duration `mapstructure:"prune_every"`
}

// RelayConfig 局域网双人对战
type RelayConfig struct {
	Addr        string        `mapstructure:"addr"`
	HostSide    string        `mapstructure:"host_side"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

const EnvPrefix = "XQ"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":2888")
	v.SetDefault("server.web_dir", "./web")
	v.SetDefault("server.mobile_dir", "")
	v.SetDefault("server.open_browser", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("session.max_sessions", 256)
	v.SetDefault("session.idle_timeout", 2*time.Hour)
	v.SetDefault("session.prune_every", 10*time.Minute)

	v.SetDefault("relay.addr", ":2889")
	v.SetDefault("relay.host_side", "red")
	v.SetDefault("relay.dial_timeout", 5*time.Second)
}

// Loader 持有 viper 实例和最近一次解析成功的配置
type Loader struct {
	v *viper.Viper

	mu  sync.RWMutex
	cfg Config
}

// Load 读取配置文件（可为空）、XQ_ 环境变量和默认值。
// configPath 为空时在 . ./config /etc/xiangqi 下找 config.yaml，找不到就用默认值。
func Load(configPath string) (*Loader, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/xiangqi")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	l := &Loader{v: v}
	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.cfg = cfg
	return l, nil
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Config 当前配置的副本
func (l *Loader) Config() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch 配置文件变化时重新解析。解析或校验失败时保留旧配置，并把错误交给 onChange。
func (l *Loader) Watch(onChange func(Config, error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err == nil {
			l.mu.Lock()
			l.cfg = cfg
			l.mu.Unlock()
		}
		if onChange != nil {
			onChange(l.Config(), err)
		}
	})
	l.v.WatchConfig()
}

// Validate 校验配置
func Validate(c *Config) error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.max_sessions must be positive")
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("session.idle_timeout must be non-negative")
	}
	if c.Session.IdleTimeout > 0 && c.Session.PruneEvery <= 0 {
		return fmt.Errorf("session.prune_every must be positive when idle_timeout is set")
	}
	if c.Relay.Addr == "" {
		return fmt.Errorf("relay.addr must not be empty")
	}
	switch strings.ToLower(c.Relay.HostSide) {
	case "red", "black":
	default:
		return fmt.Errorf("relay.host_side must be red or black, got %q", c.Relay.HostSide)
	}
	if c.Relay.DialTimeout <= 0 {
		return fmt.Errorf("relay.dial_timeout must be positive")
	}
	return nil
}
