package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	domainerr "inkpress/internal/domain/errors"
)

type Config struct {
	Site   SiteConfig   `mapstructure:"site" yaml:"site"`
	Import ImportConfig `mapstructure:"import" yaml:"import"`
	Export ExportConfig `mapstructure:"export" yaml:"export"`
	Serve  ServeConfig  `mapstructure:"serve" yaml:"serve"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type SiteConfig struct {
	Title      string `mapstructure:"title" yaml:"title"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	Language   string `mapstructure:"language" yaml:"language"`
	Stylesheet string `mapstructure:"stylesheet" yaml:"stylesheet"`
	DateLayout string `mapstructure:"date_layout" yaml:"date_layout"`
}

type ImportConfig struct {
	InboxDir    string `mapstructure:"inbox_dir" yaml:"inbox_dir"`
	StorePath   string `mapstructure:"store_path" yaml:"store_path"`
	MaxFileSize int64  `mapstructure:"max_file_size" yaml:"max_file_size"`
}

type ExportConfig struct {
	OutDir    string `mapstructure:"out_dir" yaml:"out_dir"`
	FeedPath  string `mapstructure:"feed_path" yaml:"feed_path"`
	AssetDir  string `mapstructure:"asset_dir" yaml:"asset_dir"`
	WorkDir   string `mapstructure:"work_dir" yaml:"work_dir"`
	ThemeDir  string `mapstructure:"theme_dir" yaml:"theme_dir"`
	ThemeName string `mapstructure:"theme" yaml:"theme"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:      "Inkpress",
			BaseURL:    "http://localhost:8080",
			Language:   "en",
			Stylesheet: "/assets/article.css",
			DateLayout: "January 2, 2006",
		},
		Import: ImportConfig{
			InboxDir:    "inbox",
			StorePath:   ".inkpress/drafts.db",
			MaxFileSize: 32 << 20,
		},
		Export: ExportConfig{
			OutDir:   "public",
			FeedPath: "public/feed.json",
			AssetDir: "assets",
			WorkDir:  ".",
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if strings.TrimSpace(c.Site.BaseURL) == "" {
		ve.Add("site.base_url", "must not be empty")
	} else if !isValidAbsURL(c.Site.BaseURL) {
		ve.Add("site.base_url", "must be a valid absolute URL")
	}
	if strings.TrimSpace(c.Import.StorePath) == "" {
		ve.Add("import.store_path", "must not be empty")
	}
	if c.Import.MaxFileSize <= 0 {
		ve.Add("import.max_file_size", "must be positive")
	}
	if strings.TrimSpace(c.Export.OutDir) == "" {
		ve.Add("export.out_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Export.FeedPath) == "" {
		ve.Add("export.feed_path", "must not be empty")
	}
	if ad := strings.TrimSpace(c.Export.AssetDir); ad == "" {
		ve.Add("export.asset_dir", "must not be empty")
	} else if strings.Contains(ad, "..") {
		ve.Add("export.asset_dir", "must stay inside out_dir")
	}
	if c.Export.ThemeName != "" && strings.TrimSpace(c.Export.ThemeDir) == "" {
		ve.Add("export.theme_dir", "required when export.theme is set")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		ve.Add("log.level", "must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		ve.Add("log.format", "must be 'text' or 'json'")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Load reads path (YAML) over the defaults and applies INKPRESS_* environment
// overrides. An empty path searches ./inkpress.yaml; a missing file is fine.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("inkpress")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("INKPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override values that
// the file does not mention.
func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("site.title", c.Site.Title)
	v.SetDefault("site.base_url", c.Site.BaseURL)
	v.SetDefault("site.language", c.Site.Language)
	v.SetDefault("site.stylesheet", c.Site.Stylesheet)
	v.SetDefault("site.date_layout", c.Site.DateLayout)

	v.SetDefault("import.inbox_dir", c.Import.InboxDir)
	v.SetDefault("import.store_path", c.Import.StorePath)
	v.SetDefault("import.max_file_size", c.Import.MaxFileSize)

	v.SetDefault("export.out_dir", c.Export.OutDir)
	v.SetDefault("export.feed_path", c.Export.FeedPath)
	v.SetDefault("export.asset_dir", c.Export.AssetDir)
	v.SetDefault("export.work_dir", c.Export.WorkDir)
	v.SetDefault("export.theme_dir", c.Export.ThemeDir)
	v.SetDefault("export.theme", c.Export.ThemeName)

	v.SetDefault("serve.addr", c.Serve.Addr)

	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
}
