package internal

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	for _, key := range []string{"HOST", "PORT", "LOG_LEVEL", "MAILBOX_BACKEND",
		"RESTART_INTERVAL", "METRIC_INTERVAL", "ARGON2_MEMORY_KB", "ARGON2_ITERATIONS"} {
		t.Setenv(key, "")
		req.NoError(os.Unsetenv(key))
	}

	config, err := LoadConfig()
	req.NoError(err)
	req.Equal("127.0.0.1", config.Host)
	req.Equal(8080, config.Port)
	req.Equal("INFO", config.LogLevel)
	req.Equal(BackendMemory, config.MailboxBackend)
	req.Equal(time.Second, config.RestartInterval)
	req.Equal("127.0.0.1:8080", config.Address(nil))
}

func TestLoadConfig_From_Environment(t *testing.T) {
	req := require.New(t)
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")
	t.Setenv("MAILBOX_BACKEND", BackendBadger)
	t.Setenv("METRIC_INTERVAL", "0s")
	t.Setenv("ARGON2_MEMORY_KB", "1024")
	t.Setenv("ARGON2_ITERATIONS", "1")

	config, err := LoadConfig()
	req.NoError(err)
	req.Equal("0.0.0.0:9000", config.Address([]string{}))
	req.Equal(BackendBadger, config.MailboxBackend)
	req.Zero(config.MetricInterval)
	req.Equal(uint32(1024), config.Hasher().Memory)
	req.Equal(uint32(1), config.Hasher().Iterations)
}

func TestLoadConfig_Rejects_Unknown_Backend(t *testing.T) {
	t.Setenv("MAILBOX_BACKEND", "postgres")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConfig_Address_Positional_Argument_Wins(t *testing.T) {
	config := Config{Host: "127.0.0.1", Port: 8080}
	require.Equal(t, "localhost:7000", config.Address([]string{"localhost:7000", "ignored"}))
}
