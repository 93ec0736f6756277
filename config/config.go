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

// Package config loads amictl's user configuration: AWS connection
// settings, logging preferences, and operation defaults. Configuration is
// user preference material, NOT image request definitions (those are plain
// YAML documents consumed by the apply command).
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the global amictl configuration.
type Config struct {
	AWS      AWSConfig      `mapstructure:"aws"`
	Log      LogConfig      `mapstructure:"log"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// AWSConfig holds AWS connection configuration.
type AWSConfig struct {
	Region          string `mapstructure:"region"`
	Profile         string `mapstructure:"profile"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultsConfig holds defaults applied to image operations when the
// request does not set them.
type DefaultsConfig struct {
	Wait                  bool `mapstructure:"wait"`
	CreateWaitTimeout     int  `mapstructure:"create_wait_timeout"`     // seconds
	DeregisterWaitTimeout int  `mapstructure:"deregister_wait_timeout"` // seconds
}

// Load reads and parses the global configuration file.
// Returns a Config with defaults if no config file exists.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Look in these locations (in order)
	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(home, ".amictl"))
		v.AddConfigPath(filepath.Join(home, ".config", "amictl")) // XDG standard
	}
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable support
	// AMICTL_LOG_LEVEL, AMICTL_DEFAULTS_WAIT, etc.
	v.SetEnvPrefix("AMICTL")
	v.AutomaticEnv()
	bindEnvVars(v)

	// Missing config file is fine; defaults apply.
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix("AMICTL")
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "color")

	// AWS defaults (will use AWS SDK defaults if not set)
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")

	// Operation defaults
	v.SetDefault("defaults.wait", false)
	v.SetDefault("defaults.create_wait_timeout", 300)
	v.SetDefault("defaults.deregister_wait_timeout", 900)
}

// bindEnvVars explicitly binds environment variables to config keys.
func bindEnvVars(v *viper.Viper) {
	// Log
	_ = v.BindEnv("log.level", "AMICTL_LOG_LEVEL")
	_ = v.BindEnv("log.format", "AMICTL_LOG_FORMAT")

	// AWS (also supports standard AWS_ env vars through AWS SDK)
	_ = v.BindEnv("aws.region", "AWS_REGION", "AWS_DEFAULT_REGION")
	_ = v.BindEnv("aws.profile", "AWS_PROFILE")
	_ = v.BindEnv("aws.access_key_id", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("aws.session_token", "AWS_SESSION_TOKEN")

	// Operation defaults
	_ = v.BindEnv("defaults.wait", "AMICTL_DEFAULTS_WAIT")
	_ = v.BindEnv("defaults.create_wait_timeout", "AMICTL_DEFAULTS_CREATE_WAIT_TIMEOUT")
	_ = v.BindEnv("defaults.deregister_wait_timeout", "AMICTL_DEFAULTS_DEREGISTER_WAIT_TIMEOUT")
}
