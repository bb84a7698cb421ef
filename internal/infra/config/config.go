package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Action is what to do with a job when a policy check fires.
type Action int

const (
	ActionNone Action = iota
	ActionPause
	ActionAbort
)

type Config struct {
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Assembly AssemblyConfig `mapstructure:"assembly" yaml:"assembly"`
	Rating   RatingConfig   `mapstructure:"rating" yaml:"rating"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	API      APIConfig      `mapstructure:"api" yaml:"api"`
}

type DownloadConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir"`
	Permissions  string `mapstructure:"permissions" yaml:"permissions"`
	MinFreeSpace string `mapstructure:"min_free_space" yaml:"min_free_space"`
}

type CacheConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type AssemblyConfig struct {
	UnwantedExtensions []string `mapstructure:"unwanted_extensions" yaml:"unwanted_extensions"`
	UnwantedAction     Action   `mapstructure:"unwanted_action" yaml:"unwanted_action"`
	EncryptedAction    Action   `mapstructure:"encrypted_action" yaml:"encrypted_action"`
	PasswordFile       string   `mapstructure:"password_file" yaml:"password_file"`
}

type RatingConfig struct {
	Enable       bool                  `mapstructure:"enable" yaml:"enable"`
	FilterEnable bool                  `mapstructure:"filter_enable" yaml:"filter_enable"`
	DSN          string                `mapstructure:"dsn" yaml:"dsn"`
	Abort        RatingThresholdConfig `mapstructure:"abort" yaml:"abort"`
	Pause        RatingThresholdConfig `mapstructure:"pause" yaml:"pause"`
}

type RatingThresholdConfig struct {
	Video            int    `mapstructure:"video" yaml:"video"`
	Audio            int    `mapstructure:"audio" yaml:"audio"`
	Spam             bool   `mapstructure:"spam" yaml:"spam"`
	SpamConfirm      bool   `mapstructure:"spam_confirm" yaml:"spam_confirm"`
	Encrypted        bool   `mapstructure:"encrypted" yaml:"encrypted"`
	EncryptedConfirm bool   `mapstructure:"encrypted_confirm" yaml:"encrypted_confirm"`
	Downvoted        bool   `mapstructure:"downvoted" yaml:"downvoted"`
	Keywords         string `mapstructure:"keywords" yaml:"keywords"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

type StoreConfig struct {
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

type APIConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("download.dir", "./downloads")
	v.SetDefault("download.permissions", "")
	v.SetDefault("download.min_free_space", "0")
	v.SetDefault("cache.dir", "./cache")
	v.SetDefault("assembly.unwanted_extensions", []string{})
	v.SetDefault("assembly.unwanted_action", int(ActionNone))
	v.SetDefault("assembly.encrypted_action", int(ActionPause))
	v.SetDefault("rating.enable", false)
	v.SetDefault("rating.filter_enable", false)
	v.SetDefault("log.path", "gonzb.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)
	v.SetDefault("store.sqlite_path", "./data/gonzb.db")
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func Load(path string) (*Config, error) {

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Docker images mount their config at /config
		if path == "config.yaml" {
			if _, errEx := os.Stat("/config/config.yaml"); errEx == nil {
				path = "/config/config.yaml"
			} else {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
		} else {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	v.SetEnvPrefix("GONZB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Download.Dir == "" {
		c.Download.Dir = "./downloads"
	}

	for _, a := range []struct {
		name string
		val  Action
	}{
		{"assembly.unwanted_action", c.Assembly.UnwantedAction},
		{"assembly.encrypted_action", c.Assembly.EncryptedAction},
	} {
		if a.val < ActionNone || a.val > ActionAbort {
			return fmt.Errorf("%s must be 0 (off), 1 (pause) or 2 (abort), got %d", a.name, a.val)
		}
	}

	if _, err := c.FilePerm(); err != nil {
		return err
	}

	if _, err := c.MinFreeBytes(); err != nil {
		return err
	}

	if c.Rating.FilterEnable && !c.Rating.Enable {
		return errors.New("rating.filter_enable requires rating.enable")
	}

	// Extensions are compared lowercase without the dot
	exts := c.Assembly.UnwantedExtensions[:0]
	for _, e := range c.Assembly.UnwantedExtensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	c.Assembly.UnwantedExtensions = exts

	return nil
}

// FilePerm parses download.permissions. Zero means "leave as created".
func (c *Config) FilePerm() (os.FileMode, error) {
	if c.Download.Permissions == "" {
		return 0, nil
	}
	perm, err := strconv.ParseUint(c.Download.Permissions, 8, 32)
	if err != nil || perm > 0o777 {
		return 0, fmt.Errorf("download.permissions must be an octal mode like 0644, got %q", c.Download.Permissions)
	}
	return os.FileMode(perm), nil
}

// MinFreeBytes parses download.min_free_space ("500MB", "2 GiB", ...).
func (c *Config) MinFreeBytes() (uint64, error) {
	if c.Download.MinFreeSpace == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.Download.MinFreeSpace)
	if err != nil {
		return 0, fmt.Errorf("download.min_free_space: %w", err)
	}
	return n, nil
}
