package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"min=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz    QuizConfig    `yaml:"quiz"`
	Catalog CatalogConfig `yaml:"catalog"`
	Store   StoreConfig   `yaml:"store"`
}

// QuizConfig controls where quizzes come from and how questions are played.
type QuizConfig struct {
	Source       string `yaml:"source" validate:"omitempty,oneof=file remote postgres static"`
	Dir          string `yaml:"dir"`
	BaseURL      string `yaml:"baseURL" validate:"required_if=Source remote"`
	TTL          string `yaml:"ttl"`
	TimeLimit    int    `yaml:"timeLimit" validate:"omitempty,min=5,max=120"`
	Tick         string `yaml:"tick"`
	Dwell        string `yaml:"dwell"`
	ShowResponse bool   `yaml:"showResponse"`
	FreeMode     bool   `yaml:"freeMode"`
	SpoilerMode  bool   `yaml:"spoilerMode"`
}

// CatalogConfig restricts and orders the quiz catalog.
type CatalogConfig struct {
	Quizzes     []string `yaml:"quizzes"`
	Categories  []string `yaml:"categories"`
	Order       []string `yaml:"order"`
	Concurrency int      `yaml:"concurrency" validate:"min=0,max=64"`
}

// StoreConfig selects the player record persistence engine.
type StoreConfig struct {
	Engine    string `yaml:"engine" validate:"omitempty,oneof=memory file sqlite redis postgres"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

const (
	DefaultTimeLimit = 10
	DefaultDir       = "data"
)

// DefaultCategoryOrder is the display priority of the known categories.
var DefaultCategoryOrder = []string{"Développement", "Divertissement", "Apprentissage", "Coaching"}

var validate = validator.New()

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks struct tags and reports every failing field.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("Field: %s, Tag: %s, Param: %s", fe.Namespace(), fe.Tag(), fe.Param()))
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Quiz.Source == "" {
		c.Quiz.Source = "file"
	}
	if c.Quiz.Dir == "" {
		c.Quiz.Dir = DefaultDir
	}
	if c.Quiz.TimeLimit == 0 {
		c.Quiz.TimeLimit = DefaultTimeLimit
	}
	if len(c.Catalog.Order) == 0 {
		c.Catalog.Order = DefaultCategoryOrder
	}
	if c.Catalog.Concurrency == 0 {
		c.Catalog.Concurrency = 4
	}
	if c.Store.Engine == "" {
		c.Store.Engine = "file"
	}
	if c.Store.Path == "" {
		switch c.Store.Engine {
		case "sqlite":
			c.Store.Path = "var/player.db"
		default:
			c.Store.Path = "var/player.json"
		}
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = "player"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
