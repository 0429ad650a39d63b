// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"

	"github.com/diffeo/go-jsonhome/aggregator"
	"github.com/diffeo/go-jsonhome/registry"
	"github.com/diffeo/go-jsonhome/restclient"
)

// Config holds the daemon settings read from the -config file.
//
//     interval: 5m
//     timeout: 10s
//     cache_size: 256
//     concurrency: 4
//     retry:
//       attempts: 3
//       backoff: 1s
//     max_age: 5m
//     sources:
//       - title: Widgets
//         href: http://widgets.example.com/
type Config struct {
	// Interval is the time between aggregation cycles.
	Interval time.Duration `mapstructure:"interval"`

	// Timeout bounds each directory fetch.
	Timeout time.Duration `mapstructure:"timeout"`

	// CacheSize is the number of directory responses kept in
	// the HTTP cache.
	CacheSize int `mapstructure:"cache_size"`

	// Concurrency is the number of sources fetched at once.
	Concurrency int `mapstructure:"concurrency"`

	// Retry is the per-cycle retry policy.
	Retry aggregator.RetryPolicy `mapstructure:"retry"`

	// MaxAge is sent to clients of the aggregated catalog.  If
	// unset it is the same as Interval.
	MaxAge time.Duration `mapstructure:"max_age"`

	// Sources are added to the registry at startup.
	Sources []registry.Source `mapstructure:"sources"`
}

// DefaultConfig returns the settings used for anything the
// configuration file leaves out.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Minute,
		Timeout:     restclient.DefaultTimeout,
		CacheSize:   restclient.DefaultCacheSize,
		Concurrency: 1,
		Retry:       aggregator.RetryPolicy{Attempts: 1},
	}
}

// ParseConfig decodes YAML configuration on top of the defaults.
// Unknown keys are an error.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return config, err
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &config,
	})
	if err != nil {
		return config, err
	}
	if raw != nil {
		if err := decoder.Decode(raw); err != nil {
			return config, err
		}
	}
	if config.MaxAge == 0 {
		config.MaxAge = config.Interval
	}
	return config, config.Validate()
}

// LoadConfig reads a configuration file.  An empty filename yields
// the defaults.
func LoadConfig(filename string) (Config, error) {
	if filename == "" {
		return ParseConfig(nil)
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return DefaultConfig(), err
	}
	return ParseConfig(data)
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, not %v", c.Interval)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, not %v", c.Timeout)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size must be at least 1, not %v", c.CacheSize)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, not %v", c.Concurrency)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, not %v", c.Retry.Attempts)
	}
	for _, source := range c.Sources {
		if err := source.Validate(); err != nil {
			return err
		}
	}
	return nil
}
