package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/certmap/internal/logger"
	"github.com/ppiankov/certmap/internal/metrics"
	"github.com/ppiankov/certmap/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile        string
	verbose        bool
	provisionsPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "certmap",
	Short: "certmap - map audit questions to certification provisions and aggregate compliance",
	Long: `certmap maps free-text audit questions onto the numbered provisions of a
cybersecurity certification standard, and rolls per-provision compliance
judgments up into a certification recommendation (PASS, CONDITIONAL, FAIL).

Mapping is deterministic keyword and category matching; it never calls a
language model. The optional evaluate command uses an OpenAI-compatible
model to produce the judgments that assess consumes.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()
		path := viper.GetString("metrics.textfile_path")
		if path == "" {
			return nil
		}
		if err := metrics.WriteTextfile(path); err != nil {
			return err
		}
		logger.Debug("metrics written", zap.String("path", path))
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("certmap %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.certmap/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&provisionsPath, "provisions", "p", "", "provision corpus (.yaml, .json, .csv, .html)")
	rootCmd.PersistentFlags().String("rules", "", "category rule table override (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("metrics-textfile", "", "write prometheus metrics to this file on exit")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("rules.path", rootCmd.PersistentFlags().Lookup("rules"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("metrics.textfile_path", rootCmd.PersistentFlags().Lookup("metrics-textfile"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.certmap")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	setDefaults(model.DefaultConfig())

	// Read in environment variables that match CERTMAP_*, e.g. CERTMAP_LLM_PROVIDER
	viper.SetEnvPrefix("CERTMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so environment overrides are seen by Unmarshal
func setDefaults(cfg *model.Config) {
	viper.SetDefault("rules.path", cfg.Rules.Path)
	viper.SetDefault("rules.replace", cfg.Rules.Replace)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	viper.SetDefault("storage.path", cfg.Storage.Path)
	viper.SetDefault("llm.provider", cfg.LLM.Provider)
	viper.SetDefault("llm.model", cfg.LLM.Model)
	viper.SetDefault("llm.api_key", cfg.LLM.APIKey)
	viper.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	viper.SetDefault("llm.timeout", cfg.LLM.Timeout)
	viper.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	viper.SetDefault("llm.http_proxy", cfg.LLM.HTTPProxy)
	viper.SetDefault("llm.https_proxy", cfg.LLM.HTTPSProxy)
	viper.SetDefault("llm.no_proxy", cfg.LLM.NoProxy)
	viper.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)
	viper.SetDefault("logging.level", cfg.Logging.Level)
	viper.SetDefault("logging.format", cfg.Logging.Format)
	viper.SetDefault("logging.output_path", cfg.Logging.OutputPath)
	viper.SetDefault("metrics.textfile_path", cfg.Metrics.TextfilePath)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("output.include_footer", cfg.Output.IncludeFooter)
}

// loadConfig resolves flags > env > config file > defaults into a model.Config
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyProviderEnv(cfg)
	return cfg, nil
}

// applyProviderEnv falls back to the provider's conventional environment variables
func applyProviderEnv(cfg *model.Config) {
	if cfg.LLM.APIKey == "" && strings.EqualFold(cfg.LLM.Provider, "openai") {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

func requireProvisions() error {
	if provisionsPath == "" {
		return fmt.Errorf("--provisions is required")
	}
	return nil
}
