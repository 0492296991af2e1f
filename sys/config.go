package sys

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Token          string
	GuildID        string
	VoiceChannelID string
	CommandPrefix  string
	InitialEngaged bool
	CatalogVolume  int32
	ExternalVolume int32
	AutoplayDelay  time.Duration
	DatabasePath   string
	Silent         bool
}

var GlobalConfig *Config

// Validate ensures the configuration is valid and meets requirements.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf(MsgConfigMissingToken)
	}

	// Basic Snowflake validation for the IDs if provided
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return fmt.Errorf("invalid GUILD_ID: must be a valid Snowflake")
	}
	if c.VoiceChannelID != "" && (len(c.VoiceChannelID) < 17 || len(c.VoiceChannelID) > 20) {
		return fmt.Errorf("invalid VOICE_CHANNEL_ID: must be a valid Snowflake")
	}

	return nil
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	token := os.Getenv("DISCORD_TOKEN")
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data.db"
	}

	prefix := os.Getenv("COMMAND_PREFIX")
	if prefix == "" {
		prefix = "!"
	}

	// INITIAL_MODE is ON or OFF; anything else stays OFF
	initialEngaged := strings.EqualFold(os.Getenv("INITIAL_MODE"), "ON")

	delay := 5000 * time.Millisecond
	if ms, err := strconv.Atoi(os.Getenv("AUTOPLAY_DELAY_MS")); err == nil && ms > 0 {
		delay = time.Duration(ms) * time.Millisecond
	}

	silent, _ := strconv.ParseBool(os.Getenv("SILENT"))

	cfg := &Config{
		Token:          token,
		GuildID:        os.Getenv("GUILD_ID"),
		VoiceChannelID: os.Getenv("VOICE_CHANNEL_ID"),
		CommandPrefix:  prefix,
		InitialEngaged: initialEngaged,
		CatalogVolume:  parseVolume(os.Getenv("CATALOG_VOLUME")),
		ExternalVolume: parseVolume(os.Getenv("EXTERNAL_VOLUME")),
		AutoplayDelay:  delay,
		DatabasePath:   fmt.Sprintf("%s?_journal_mode=WAL&_timeout=5000", dbPath),
		Silent:         silent,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	GlobalConfig = cfg
	return cfg, nil
}

// parseVolume returns -1 (disabled) for anything that is not a number. The
// sentinel itself is deliberately not validated further.
func parseVolume(s string) int32 {
	v, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return int32(v)
}
