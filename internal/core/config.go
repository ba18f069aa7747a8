package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to the chat
// client components.
type Config struct {
	// Full path to file to which logs will be written. Blank will write to stdout.
	LogFilePath string `mapstructure:"log_file_path"`
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`

	Chat struct {
		// Hostname or IP address of the chat server.
		Host string `mapstructure:"host"`
		// Port on which the chat server accepts connections.
		Port int `mapstructure:"port"`
		// Seconds to wait for the TCP connection and the login exchange.
		ConnectTimeout int `mapstructure:"connect_timeout"`
		// Milliseconds between session ticks.
		TickInterval int `mapstructure:"tick_interval"`
		// Milliseconds of post-login silence before the session is considered ready.
		ReadyGrace int `mapstructure:"ready_grace"`
		// Seconds of silence after which a keepalive ping is sent.
		KeepaliveAfter int `mapstructure:"keepalive_after"`
	} `mapstructure:"chat"`

	Account struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Name of the character to log in as.
		Character string `mapstructure:"character"`
	} `mapstructure:"account"`

	FloodControl struct {
		// Number of sends allowed in a burst before throttling kicks in.
		BucketCapacity int `mapstructure:"bucket_capacity"`
		// Tokens restored per tick.
		RefillPerTick int `mapstructure:"refill_per_tick"`
		// Disable throttling entirely (trusted bot accounts).
		Unlimited bool `mapstructure:"unlimited"`
	} `mapstructure:"flood_control"`

	TextDatabase struct {
		// Full path to the message string database. Blank disables extended
		// message rendering.
		Path string `mapstructure:"path"`
	} `mapstructure:"text_database"`

	Debugging struct {
		// Log every decoded packet to the application log.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "AOCHAT"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("error reading config file: %v\n", err)
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, chat.host can be set using: <envVarPrefix>_CHAT_HOST
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s\n", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v\n", err)
		os.Exit(1)
	}
	return config
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("chat.port", 7105)
	viper.SetDefault("chat.connect_timeout", 10)
	viper.SetDefault("chat.tick_interval", 100)
	viper.SetDefault("chat.ready_grace", 2000)
	viper.SetDefault("chat.keepalive_after", 60)
	viper.SetDefault("flood_control.bucket_capacity", 5)
	viper.SetDefault("flood_control.refill_per_tick", 1)
}

// ServerAddress returns the host:port pair of the chat server.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Chat.Host, c.Chat.Port)
}

func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Chat.ConnectTimeout) * time.Second
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Chat.TickInterval) * time.Millisecond
}

func (c *Config) ReadyGrace() time.Duration {
	return time.Duration(c.Chat.ReadyGrace) * time.Millisecond
}

func (c *Config) KeepaliveAfter() time.Duration {
	return time.Duration(c.Chat.KeepaliveAfter) * time.Second
}
