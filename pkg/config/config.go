// Package config loads dopingplot settings.
//
// Settings come from, lowest precedence first:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (dopingplot.toml in the working directory, the user config
//     directory, or an explicit --config path)
//  3. a .env file in the working directory
//  4. DOPINGPLOT_* environment variables
//
// Command-line flags are applied on top by the CLI.
//
//	[chart]
//	width = 900
//	height = 550
//	visible_from = "36:00"
//	visible_to = "40:00"
//	on_invalid = "skip"
//
//	[chart.margin]
//	top = 100
//
//	[source]
//	url = "https://example.com/cyclist-data.json"
//	timeout = "5s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/dopingplot/pkg/cache"
	"github.com/matzehuels/dopingplot/pkg/chart"
	"github.com/matzehuels/dopingplot/pkg/chart/mark"
	"github.com/matzehuels/dopingplot/pkg/chart/scale"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/errors"
	"github.com/matzehuels/dopingplot/pkg/httputil"
	"github.com/matzehuels/dopingplot/pkg/source"
)

// FileName is the config file looked up when no path is given.
const FileName = "dopingplot.toml"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete application configuration.
type Config struct {
	Chart  Chart  `toml:"chart"`
	Source Source `toml:"source"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
}

// Chart holds layout and styling.
type Chart struct {
	Width       float64      `toml:"width"`
	Height      float64      `toml:"height"`
	Margin      scale.Margin `toml:"margin"`
	Ticks       int          `toml:"ticks"`
	Radius      float64      `toml:"radius"`
	DopingColor string       `toml:"doping_color"`
	CleanColor  string       `toml:"clean_color"`
	Title       string       `toml:"title"`
	Subtitle    string       `toml:"subtitle"`
	VisibleFrom string       `toml:"visible_from"` // "m:ss"
	VisibleTo   string       `toml:"visible_to"`   // "m:ss"
	OnInvalid   string       `toml:"on_invalid"`   // abort | skip
}

// Source holds dataset location and fetch policy.
type Source struct {
	URL        string   `toml:"url"` // URL or local path
	Timeout    Duration `toml:"timeout"`
	Retries    int      `toml:"retries"`
	RetryDelay Duration `toml:"retry_delay"`
}

// Cache holds cache backend settings.
type Cache struct {
	Backend       string   `toml:"backend"` // file | redis | none
	Dir           string   `toml:"dir"`
	TTL           Duration `toml:"ttl"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
}

// Server holds serve command settings.
type Server struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Duration is a time.Duration written as a string ("10s") in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	def := chart.DefaultConfig()
	return Config{
		Chart: Chart{
			Width:       def.Frame.Width,
			Height:      def.Frame.Height,
			Margin:      def.Frame.Margin,
			Ticks:       def.Ticks,
			Radius:      def.Style.Radius,
			DopingColor: def.Style.DopingColor,
			CleanColor:  def.Style.CleanColor,
			Title:       def.Title,
			VisibleFrom: dataset.FormatSeconds(def.Window.Lower),
			VisibleTo:   dataset.FormatSeconds(def.Window.Upper),
			OnInvalid:   string(mark.PolicyAbort),
		},
		Source: Source{
			URL:        source.DefaultURL,
			Timeout:    Duration{source.DefaultTimeout},
			Retries:    httputil.DefaultPolicy.Attempts,
			RetryDelay: Duration{httputil.DefaultPolicy.Delay},
		},
		Cache: Cache{
			Backend:   BackendFile,
			TTL:       Duration{cache.TTLDataset},
			RedisAddr: "localhost:6379",
		},
		Server: Server{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     Duration{10 * time.Second},
			ShutdownTimeout: Duration{5 * time.Second},
		},
	}
}

// Loader reads configuration from files and the environment.
type Loader struct {
	// Path is an explicit config file. When empty, FileName is searched for
	// in the working directory and then the user config directory, and a
	// missing file is not an error.
	Path string

	// EnvFile is a dotenv file merged under the process environment.
	// Missing files are ignored.
	EnvFile string

	// Lookup reads environment variables. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Load reads configuration with the default search path, .env and the
// process environment.
func Load(path string) (Config, string, error) {
	return Loader{Path: path, EnvFile: ".env"}.Load()
}

// Load returns the merged, validated configuration and the path of the
// config file read ("" when none).
func (l Loader) Load() (Config, string, error) {
	cfg := Default()

	path, err := l.resolve()
	if err != nil {
		return cfg, "", err
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, path, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, path, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if l.EnvFile != "" {
		lookup = withDotenv(l.EnvFile, lookup)
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, path, err
	}
	return cfg, path, cfg.Validate()
}

func (l Loader) resolve() (string, error) {
	if l.Path != "" {
		if _, err := os.Stat(l.Path); err != nil {
			return "", errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", l.Path)
		}
		return l.Path, nil
	}
	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "dopingplot", FileName))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// withDotenv layers the variables of file under lookup.
func withDotenv(file string, lookup func(string) (string, bool)) func(string) (string, bool) {
	vars, err := godotenv.Read(file)
	if err != nil {
		return lookup
	}
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if _, err := c.ChartConfig(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.Source.Retries < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "source retries must be at least 1")
	}
	if c.Source.Timeout.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "source timeout must be positive")
	}
	return nil
}

// Window parses the visible time range.
func (c Chart) Window() (scale.Window, error) {
	lo, err := dataset.ParseSeconds(c.VisibleFrom)
	if err != nil {
		return scale.Window{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "visible_from")
	}
	hi, err := dataset.ParseSeconds(c.VisibleTo)
	if err != nil {
		return scale.Window{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "visible_to")
	}
	w := scale.Window{Lower: lo, Upper: hi}
	return w, w.Validate()
}

// ChartConfig converts the chart section to a draw configuration.
func (c Config) ChartConfig() (chart.Config, error) {
	window, err := c.Chart.Window()
	if err != nil {
		return chart.Config{}, err
	}
	frame := scale.Frame{Width: c.Chart.Width, Height: c.Chart.Height, Margin: c.Chart.Margin}
	if err := frame.Validate(); err != nil {
		return chart.Config{}, err
	}

	policy := mark.Policy(c.Chart.OnInvalid)
	switch policy {
	case mark.PolicyAbort, mark.PolicySkip:
	default:
		return chart.Config{}, errors.New(errors.ErrCodeInvalidConfig, "on_invalid %q (must be abort or skip)", c.Chart.OnInvalid)
	}

	return chart.Config{
		Frame:  frame,
		Window: window,
		Ticks:  c.Chart.Ticks,
		Style: mark.Style{
			Radius:      c.Chart.Radius,
			DopingColor: c.Chart.DopingColor,
			CleanColor:  c.Chart.CleanColor,
			Stroke:      mark.DefaultStyle.Stroke,
		},
		Title:    c.Chart.Title,
		Subtitle: c.Chart.Subtitle,
		Policy:   policy,
	}, nil
}

// RetryPolicy returns the fetch retry policy.
func (s Source) RetryPolicy() httputil.Policy {
	return httputil.Policy{Attempts: s.Retries, Delay: s.RetryDelay.Duration}
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
