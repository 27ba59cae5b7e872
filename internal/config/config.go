/*
Copyright (c) 2025 The Dungeond Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// placeholderToken is what ships in example .env files. Starting with
// it would mean connecting with a string that is not a credential, so
// it is rejected as loudly as a missing token.
const placeholderToken = "your_bot_token_here"

const (
	defaultPrefix            = ".d "
	defaultTriggerChannel    = "🎙️ your-dungeon"
	defaultCategory          = "DUNGEONS"
	defaultInactivityTimeout = 2 * time.Minute
	defaultLogLevel          = "info"
)

// Config is the full runtime configuration of the bot process.
type Config struct {
	// Token is the Discord bot token.
	Token string
	// Prefix is the command prefix, including any trailing space.
	Prefix string
	// TriggerChannel is the display name of the voice channel whose
	// entry provisions a new dungeon.
	TriggerChannel string
	// Category is the display name of the category dungeons are
	// created under.
	Category string
	// InactivityTimeout is how long a dungeon may stay empty before
	// it is reclaimed.
	InactivityTimeout time.Duration
	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string
}

// Load reads configuration from the environment, honoring a .env file
// when one exists. It returns an error for a missing or placeholder
// token and for malformed values; callers are expected to treat any
// error as fatal before connecting to Discord.
func Load() (*Config, error) {
	// A missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Token:             os.Getenv("DISCORD_BOT_TOKEN"),
		Prefix:            envOr("DUNGEOND_PREFIX", defaultPrefix),
		TriggerChannel:    envOr("DUNGEOND_TRIGGER_CHANNEL", defaultTriggerChannel),
		Category:          envOr("DUNGEOND_CATEGORY", defaultCategory),
		InactivityTimeout: defaultInactivityTimeout,
		LogLevel:          envOr("DUNGEOND_LOG_LEVEL", defaultLogLevel),
	}

	if raw := os.Getenv("DUNGEOND_INACTIVITY_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid DUNGEOND_INACTIVITY_TIMEOUT %q: %w", raw, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("config: DUNGEOND_INACTIVITY_TIMEOUT must be positive, got %q", raw)
		}
		cfg.InactivityTimeout = d
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Token == "" {
		return errors.New("config: DISCORD_BOT_TOKEN is not set")
	}
	if c.Token == placeholderToken {
		return errors.New("config: DISCORD_BOT_TOKEN is still the placeholder value; set a real bot token")
	}
	if c.Prefix == "" {
		return errors.New("config: DUNGEOND_PREFIX must not be empty")
	}
	if c.TriggerChannel == "" {
		return errors.New("config: DUNGEOND_TRIGGER_CHANNEL must not be empty")
	}
	if c.Category == "" {
		return errors.New("config: DUNGEOND_CATEGORY must not be empty")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
