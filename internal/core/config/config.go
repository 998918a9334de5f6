package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level string
	JSON  bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Auth 鉴权相关：未登录/无权限时跳转的入口地址 + 角色缓存
type Auth struct {
	FallbackURL     string `mapstructure:"fallback_url"`
	RoleCacheTTLSec int    `mapstructure:"role_cache_ttl_sec"`
}

// Realtime 实时变更通道（redis pub/sub）
type Realtime struct {
	ChannelPrefix string   `mapstructure:"channel_prefix"`
	Tables        []string `mapstructure:"tables"`
	BufferSize    int      `mapstructure:"buffer_size"`
}

type Config struct {
	App      App
	Log      Log
	JWT      JWT
	DB       DB
	Redis    Redis    `mapstructure:"redis"`
	Auth     Auth     `mapstructure:"auth"`
	Realtime Realtime `mapstructure:"realtime"`
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 缺省值
	v.SetDefault("auth.fallback_url", "/auth/login")
	v.SetDefault("auth.role_cache_ttl_sec", 30)
	v.SetDefault("realtime.channel_prefix", "realtime:")
	v.SetDefault("realtime.tables", []string{"matches", "standings", "playoffs"})
	v.SetDefault("realtime.buffer_size", 64)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	return &c
}
