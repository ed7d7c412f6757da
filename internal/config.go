package internal

import (
	"chat-mailbox/auth"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

type Config struct {
	Host             string        `env:"HOST,default=127.0.0.1"`
	Port             int           `env:"PORT,default=8080" validate:"min=0,max=65535"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
	MailboxBackend   string        `env:"MAILBOX_BACKEND,default=memory" validate:"oneof=memory badger"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
	MetricInterval   time.Duration `env:"METRIC_INTERVAL,default=30s" validate:"gte=0"`
	Argon2MemoryKB   int           `env:"ARGON2_MEMORY_KB,default=65536" validate:"min=8"`
	Argon2Iterations int           `env:"ARGON2_ITERATIONS,default=3" validate:"min=1"`
	DebugAddr        string        `env:"DEBUG_ADDR"` // enables the stats and inspection HTTP server
}

// LoadConfig reads the process environment and validates the result.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, err
	}
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Address returns the first positional argument when there is one,
// otherwise HOST:PORT.
func (c Config) Address(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) Hasher() auth.Hasher {
	return auth.NewHasher(uint32(c.Argon2MemoryKB), uint32(c.Argon2Iterations))
}
