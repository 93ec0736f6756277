/*
Copyright © 2026 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package main implements the amictl CLI tool for managing AWS AMIs
// declaratively. It provides commands for creating images from instances,
// registering images from snapshots or manifests, deregistering images,
// and reconciling launch permissions.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amictl/amictl/ami"
	"github.com/amictl/amictl/config"
	"github.com/amictl/amictl/logging"
)

// Context key type for storing config
type configKeyType struct{}

var (
	// configKey is the context key for storing the config
	configKey = configKeyType{}

	// Root command options
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "amictl",
	Short: "amictl - declarative AWS AMI lifecycle management",
	Long: `amictl converges EC2 images (AMIs) toward a desired state: create
images from running instances, register images from snapshots or S3
manifests, deregister images, and manage launch permissions. Operations
are idempotent and report whether anything changed.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is $HOME/.amictl/config.yaml)")
	rootCmd.PersistentFlags().String("region", "", "AWS region")
	rootCmd.PersistentFlags().String("profile", "", "AWS shared config profile")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json, color)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Quiet mode - only show errors")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose mode - show debug output")

	// Add subcommands
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(deregisterCmd)
	rootCmd.AddCommand(permissionsCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(versionCmd)
}

// configFromContext retrieves the config from the command context.
// Returns an empty config if none is stored in context.
func configFromContext(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey).(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}

// initConfig initializes configuration with proper precedence:
// CLI Flags > Environment Variables > Config File > Defaults
func initConfig(cmd *cobra.Command, args []string) error {
	// 1. Load global config (handles defaults, env vars, and config file)
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFromPath(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Create a new Viper instance for flag binding
	v := viper.New()

	// Set defaults from loaded config
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("aws.region", cfg.AWS.Region)
	v.SetDefault("aws.profile", cfg.AWS.Profile)

	// 3. Bind environment variables
	v.SetEnvPrefix("AMICTL")
	v.AutomaticEnv()

	// 4. Bind Cobra flags to Viper (this enables: flags > env > config > defaults)
	flags := cmd.Root().PersistentFlags()
	for flagName, viperKey := range map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
		"region":     "aws.region",
		"profile":    "aws.profile",
	} {
		if err := v.BindPFlag(viperKey, flags.Lookup(flagName)); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", flagName, err)
		}
	}

	// 5. Get final values from Viper (single source of truth)
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.AWS.Region = v.GetString("aws.region")
	cfg.AWS.Profile = v.GetString("aws.profile")
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")

	// 6. Build the logger with final values and store everything in context
	logger := logging.NewCustomLoggerWithOptions(cfg.Log.Level, cfg.Log.Format, quiet, verbose)
	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = logging.WithLogger(ctx, logger)
	cmd.SetContext(ctx)

	debugLogConfig(ctx, cfg)

	return nil
}

// debugLogConfig dumps the effective configuration at debug level with
// credential values masked.
func debugLogConfig(ctx context.Context, cfg *config.Config) {
	settings := []struct {
		key   string
		value string
	}{
		{"aws.region", cfg.AWS.Region},
		{"aws.profile", cfg.AWS.Profile},
		{"aws.access_key_id", cfg.AWS.AccessKeyID},
		{"aws.secret_access_key", cfg.AWS.SecretAccessKey},
		{"aws.session_token", cfg.AWS.SessionToken},
		{"log.level", cfg.Log.Level},
		{"log.format", cfg.Log.Format},
	}
	for _, s := range settings {
		if s.value == "" {
			continue
		}
		logging.DebugContext(ctx, "config %s=%s", s.key, logging.RedactSensitiveValue(s.key, s.value))
	}
}

// newController builds an AMI controller from the resolved configuration.
// Overridable in tests to avoid real AWS credential resolution.
var newController = func(cmd *cobra.Command) (*ami.Controller, error) {
	cfg := configFromContext(cmd)

	clients, err := ami.NewAWSClients(cmd.Context(), ami.ClientConfig{
		Region:          cfg.AWS.Region,
		Profile:         cfg.AWS.Profile,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		SessionToken:    cfg.AWS.SessionToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS clients: %w", err)
	}
	logging.DebugContext(cmd.Context(), "using AWS region %s", clients.GetRegion())

	return ami.NewController(clients), nil
}

// applyWaitDefaults fills wait settings from the config when the flags
// were left untouched.
func applyWaitDefaults(cmd *cobra.Command, wait *bool, waitTimeout *int, defaultTimeout int) {
	cfg := configFromContext(cmd)

	if !cmd.Flags().Changed("wait") {
		*wait = cfg.Defaults.Wait
	}
	if *waitTimeout == 0 {
		*waitTimeout = defaultTimeout
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
