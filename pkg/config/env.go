package config

import (
	"strconv"
	"time"

	"github.com/matzehuels/dopingplot/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOPINGPLOT_"

type envVar struct {
	name  string
	apply func(*Config, string) error
}

// envVars lists the supported overrides, without the prefix.
var envVars = []envVar{
	{"URL", func(c *Config, v string) error { c.Source.URL = v; return nil }},
	{"TIMEOUT", durationVar(func(c *Config) *time.Duration { return &c.Source.Timeout.Duration })},
	{"RETRIES", intVar(func(c *Config) *int { return &c.Source.Retries })},
	{"CACHE", func(c *Config, v string) error { c.Cache.Backend = v; return nil }},
	{"CACHE_DIR", func(c *Config, v string) error { c.Cache.Dir = v; return nil }},
	{"CACHE_TTL", durationVar(func(c *Config) *time.Duration { return &c.Cache.TTL.Duration })},
	{"REDIS_ADDR", func(c *Config, v string) error { c.Cache.RedisAddr = v; return nil }},
	{"REDIS_PASSWORD", func(c *Config, v string) error { c.Cache.RedisPassword = v; return nil }},
	{"REDIS_DB", intVar(func(c *Config) *int { return &c.Cache.RedisDB })},
	{"ADDR", func(c *Config, v string) error { c.Server.Addr = v; return nil }},
	{"WIDTH", floatVar(func(c *Config) *float64 { return &c.Chart.Width })},
	{"HEIGHT", floatVar(func(c *Config) *float64 { return &c.Chart.Height })},
	{"VISIBLE_FROM", func(c *Config, v string) error { c.Chart.VisibleFrom = v; return nil }},
	{"VISIBLE_TO", func(c *Config, v string) error { c.Chart.VisibleTo = v; return nil }},
	{"ON_INVALID", func(c *Config, v string) error { c.Chart.OnInvalid = v; return nil }},
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok || v == "" {
			continue
		}
		if err := ev.apply(c, v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", EnvPrefix, ev.name)
		}
	}
	return nil
}

func durationVar(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func intVar(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func floatVar(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}
