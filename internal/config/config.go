// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Auth     AuthConfig
	Chat     ChatConfig
	Realtime RealtimeConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// AuthConfig holds identity verification configuration.
// Token issuance lives in a separate service; this server only verifies.
type AuthConfig struct {
	// JWTSecret is the HMAC key shared with the token issuer.
	// Empty means every connection is treated as a guest.
	JWTSecret string
}

// ChatConfig holds chat channel configuration.
type ChatConfig struct {
	// HistoryLimit caps the number of retained messages per channel (default: 200).
	// Oldest messages are evicted first.
	HistoryLimit int
	// TypingTimeout is how long after the last keystroke event a typing
	// indicator auto-stops (default: 1s).
	TypingTimeout time.Duration
	// MessageRatePerSecond limits inbound messages per connection (default: 10).
	MessageRatePerSecond float64
	// MessageBurst is the token bucket burst for inbound messages (default: 20).
	MessageBurst int
}

// RealtimeConfig holds broadcast engine configuration.
type RealtimeConfig struct {
	// SendFailureThreshold is the number of consecutive failed deliveries
	// before a connection is dropped from future fan-out (default: 3).
	SendFailureThreshold int
	// ClientBuffer is the per-connection outbound event buffer (default: 100).
	ClientBuffer int
	// QueueBuffer is the global event queue buffer (default: 1000).
	QueueBuffer int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	serverName := flag.String("server-name", "", "Name for the server")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	jwtSecret := flag.String("jwt-secret", "", "HMAC key for verifying access tokens")

	chatHistoryLimit := flag.String("chat-history-limit", "", "Messages retained per channel (default: 200)")
	typingTimeout := flag.String("typing-timeout", "", "Typing indicator auto-stop timeout (default: 1s)")
	messageRate := flag.String("chat-message-rate", "", "Inbound chat messages per second per connection (default: 10)")
	messageBurst := flag.String("chat-message-burst", "", "Inbound chat message burst per connection (default: 20)")

	sendFailureThreshold := flag.String("send-failure-threshold", "", "Consecutive send failures before dropping a connection (default: 3)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "Campfire Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Auth: AuthConfig{
			JWTSecret: getConfigValue(*jwtSecret, "JWT_SECRET", ""),
		},
		Chat: ChatConfig{
			HistoryLimit:         getIntConfigValue(*chatHistoryLimit, "CHAT_HISTORY_LIMIT", 200),
			MessageRatePerSecond: float64(getIntConfigValue(*messageRate, "CHAT_MESSAGE_RATE", 10)),
			MessageBurst:         getIntConfigValue(*messageBurst, "CHAT_MESSAGE_BURST", 20),
		},
		Realtime: RealtimeConfig{
			SendFailureThreshold: getIntConfigValue(*sendFailureThreshold, "SEND_FAILURE_THRESHOLD", 3),
			ClientBuffer:         getIntConfigValue("", "REALTIME_CLIENT_BUFFER", 100),
			QueueBuffer:          getIntConfigValue("", "REALTIME_QUEUE_BUFFER", 1000),
		},
	}

	// Parse server timeouts.
	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	typingTimeoutStr := getConfigValue(*typingTimeout, "TYPING_TIMEOUT", "1s")
	typingTimeoutDuration, err := time.ParseDuration(typingTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid typing timeout %q: %w", typingTimeoutStr, err)
	}
	cfg.Chat.TypingTimeout = typingTimeoutDuration

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Chat.HistoryLimit <= 0 {
		return fmt.Errorf("chat history limit must be positive, got %d", c.Chat.HistoryLimit)
	}

	if c.Chat.MessageRatePerSecond <= 0 {
		return fmt.Errorf("chat message rate must be positive, got %v", c.Chat.MessageRatePerSecond)
	}

	if c.Chat.MessageBurst <= 0 {
		return fmt.Errorf("chat message burst must be positive, got %d", c.Chat.MessageBurst)
	}

	if c.Realtime.SendFailureThreshold <= 0 {
		return fmt.Errorf("send failure threshold must be positive, got %d", c.Realtime.SendFailureThreshold)
	}

	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
