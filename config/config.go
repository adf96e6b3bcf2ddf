package config

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug             = "debug"
	ConfigParamsPath        = "params-path"
	ConfigMaxDepth          = "max-depth"
	ConfigNullMovePruning   = "null-move-pruning"
	ConfigNullMoveReduction = "null-move-reduction"
	ConfigTimeBuffer        = "time-buffer"
	ConfigWinCheckMoves     = "win-check-moves"
	ConfigFixedBudget       = "fixed-budget"
	ConfigExactCache        = "exact-cache"
	ConfigNatsURL           = "nats-url"
	ConfigBotChannel        = "bot-channel"
	ConfigMetricsAddr       = "metrics-addr"
	ConfigServerAddr        = "server-addr"
	ConfigServerRetries     = "server-retries"
	ConfigCPUProfile        = "cpu-profile"
)

// Config wraps viper. Values come from, in order of precedence, command
// line flags, GUARDTOWERS_* environment variables, an optional
// config.yaml, and the defaults below.
type Config struct {
	*viper.Viper
	args []string
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("guardtowers", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigParamsPath, "", "YAML or JSON file with evaluation weights; empty uses the defaults")
	fs.Int(ConfigMaxDepth, 4, "deepest iteration of the search")
	fs.Bool(ConfigNullMovePruning, true, "use null-move pruning")
	fs.Int(ConfigNullMoveReduction, 1, "extra depth reduction for null-move probes")
	fs.Duration(ConfigTimeBuffer, 50*time.Millisecond, "stop searching this long before the deadline")
	fs.Int(ConfigWinCheckMoves, 3, "root moves checked for an immediate win before searching")
	fs.Duration(ConfigFixedBudget, 0, "fixed time per move; 0 sizes the budget from the game phase")
	fs.Bool(ConfigExactCache, false, "use the collision-free transposition table (slow, for debugging)")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "NATS server for the bot")
	fs.String(ConfigBotChannel, "guardtowers.bot", "NATS subject the bot listens on")
	fs.String(ConfigMetricsAddr, ":9090", "address for the prometheus metrics endpoint; empty disables it")
	fs.String(ConfigServerAddr, "localhost:5555", "game server address for the client")
	fs.Int(ConfigServerRetries, 3, "connection attempts to the game server")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	return fs
}

// DefaultConfig has every key at its default value.
func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	// Parsing no arguments can't fail.
	_ = c.bind(flagSet())
	return c
}

func (c *Config) bind(fs *pflag.FlagSet) error {
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix("GUARDTOWERS")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	return nil
}

// Load parses flags from args. Anything left over is available from
// Args.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()
	if err := c.bind(fs); err != nil {
		return err
	}
	c.SetConfigName("config")
	c.SetConfigType("yaml")
	c.AddConfigPath(".")
	if err := c.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

// Args are the non-flag arguments from the last Load.
func (c *Config) Args() []string {
	return c.args
}

// AdjustRelativePaths resolves relative file settings against basepath,
// normally the executable's directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	for _, key := range []string{ConfigParamsPath} {
		p := c.GetString(key)
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		if strings.HasPrefix(p, "./") {
			c.Set(key, filepath.Join(basepath, p))
		}
	}
}

// SanitizedSettings is AllSettings with credentials stripped from URLs,
// for logging.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	if u, err := url.Parse(c.GetString(ConfigNatsURL)); err == nil && u.User != nil {
		u.User = url.User("redacted")
		settings[ConfigNatsURL] = u.String()
	}
	return settings
}
