package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Conf 全局服务配置，Load 之后可读
var Conf ServerConfiguration

type ServerConfiguration struct {
	ID           string `mapstructure:"id"`
	HttpPort     int    `mapstructure:"httpPort"`
	WsPort       int    `mapstructure:"wsPort"`
	Mode         string `mapstructure:"mode"` // debug / release
	JwtConf      `mapstructure:"jwt"`
	DatabaseConf `mapstructure:"database"`
	LogConf      `mapstructure:"log"`
	GameConf     `mapstructure:"game"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
}

type JwtConf struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // 秒
}

type DatabaseConf struct {
	MongoConf MongoConf `mapstructure:"mongo"`
	RedisConf RedisConf `mapstructure:"redis"`
}

type MongoConf struct {
	Url         string `mapstructure:"url"`
	Db          string `mapstructure:"db"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MinPoolSize int    `mapstructure:"minPoolSize"`
	MaxPoolSize int    `mapstructure:"maxPoolSize"`
}

type RedisConf struct {
	Addr         string   `mapstructure:"addr"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	Password     string   `mapstructure:"password"`
	PoolSize     int      `mapstructure:"poolSize"`
	MinIdleConns int      `mapstructure:"minIdleConns"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
}

// GameConf 对局与房间的默认参数
type GameConf struct {
	TurnSeconds              int `mapstructure:"turnSeconds"`
	ActionSeconds            int `mapstructure:"actionSeconds"`
	GraceSeconds             int `mapstructure:"graceSeconds"`
	TrusteeTimeoutCount      int `mapstructure:"trusteeTimeoutCount"`
	MaxReconnectMinutes      int `mapstructure:"maxReconnectMinutes"`
	CleanupIntervalMinutes   int `mapstructure:"cleanupIntervalMinutes"`
	InactiveThresholdMinutes int `mapstructure:"inactiveThresholdMinutes"`
	MaxActiveRoomsPerOwner   int `mapstructure:"maxActiveRoomsPerOwner"`
	LiveTTLSeconds           int `mapstructure:"liveTTLSeconds"`
}

// Load 读取配置文件并监听变更
func Load(configFile string) error {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("application")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置失败: %w", err)
	}
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	applyDefaults(&Conf)

	v.OnConfigChange(func(e fsnotify.Event) {
		var next ServerConfiguration
		if err := v.Unmarshal(&next); err != nil {
			fmt.Fprintf(os.Stderr, "配置热更新失败: %v\n", err)
			return
		}
		applyDefaults(&next)
		Conf = next
	})
	v.WatchConfig()

	return nil
}

func applyDefaults(c *ServerConfiguration) {
	if c.HttpPort == 0 {
		c.HttpPort = 8080
	}
	if c.WsPort == 0 {
		c.WsPort = 8081
	}
	if c.GameConf.TurnSeconds == 0 {
		c.GameConf.TurnSeconds = 30
	}
	if c.GameConf.ActionSeconds == 0 {
		c.GameConf.ActionSeconds = 10
	}
	if c.GameConf.GraceSeconds == 0 {
		c.GameConf.GraceSeconds = 30
	}
	if c.GameConf.TrusteeTimeoutCount == 0 {
		c.GameConf.TrusteeTimeoutCount = 3
	}
	if c.GameConf.MaxReconnectMinutes == 0 {
		c.GameConf.MaxReconnectMinutes = 5
	}
	if c.GameConf.CleanupIntervalMinutes == 0 {
		c.GameConf.CleanupIntervalMinutes = 10
	}
	if c.GameConf.InactiveThresholdMinutes == 0 {
		c.GameConf.InactiveThresholdMinutes = 30
	}
	if c.GameConf.MaxActiveRoomsPerOwner == 0 {
		c.GameConf.MaxActiveRoomsPerOwner = 3
	}
	if c.GameConf.LiveTTLSeconds == 0 {
		c.GameConf.LiveTTLSeconds = 600
	}
}
