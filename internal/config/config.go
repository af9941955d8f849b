package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string `yaml:"log-level" env-default:"info"`
	HTTPPort          string `yaml:"http-port" env-default:"9090"`
	Redis             Redis  `yaml:"redis"`
	SQLiteStoragePath string `yaml:"sqlite-storage-path"`
	Engine            Engine `yaml:"engine"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// Engine holds match and wager tunables. Timeouts are plain seconds because
// cleanenv's yaml decoding does not understand duration strings.
type Engine struct {
	StartingBalance  int64 `yaml:"starting-balance" env-default:"100"`
	MinWager         int64 `yaml:"min-wager" env-default:"10"`
	MaxWager         int64 `yaml:"max-wager" env-default:"1000"`
	AllowAgentWagers bool  `yaml:"allow-agent-wagers" env-default:"false"`
	ChallengeTTLSec  int   `yaml:"challenge-ttl-seconds" env-default:"300"`
	MoveTimeoutSec   int   `yaml:"move-timeout-seconds" env-default:"120"`
	FinishedGraceSec int   `yaml:"finished-grace-seconds" env-default:"60"`
	SweepIntervalSec int   `yaml:"sweep-interval-seconds" env-default:"5"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Engine) ChallengeTTL() time.Duration {
	return time.Duration(that.ChallengeTTLSec) * time.Second
}

func (that *Engine) MoveTimeout() time.Duration {
	return time.Duration(that.MoveTimeoutSec) * time.Second
}

func (that *Engine) FinishedGrace() time.Duration {
	return time.Duration(that.FinishedGraceSec) * time.Second
}

func (that *Engine) SweepInterval() time.Duration {
	return time.Duration(that.SweepIntervalSec) * time.Second
}
