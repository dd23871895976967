// Package config loads bankwatch.yaml.
//
// Loading happens in four steps: ${VAR} references are expanded from the
// environment, the document is checked against an embedded CUE schema
// (unknown keys and wrong types fail here), it is decoded into Config, and
// Validate applies the rules a schema cannot express, such as the credential
// fields each account kind requires.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bankwatch/internal/engine"
	"github.com/roach88/bankwatch/internal/source"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "bankwatch.yaml"

// Defaults applied by Load.
const (
	DefaultDatabase           = "bankwatch.db"
	DefaultDaysAgo            = 7
	DefaultUpdateIntervalMin  = 60
	DefaultLookbackMarginDays = 7
	DefaultTimezone           = "Asia/Jerusalem"
	DefaultChannel            = ChannelLog
)

// Notification channels.
const (
	ChannelSMTP   = "smtp"
	ChannelNotion = "notion"
	ChannelLog    = "log"
)

// Config is the decoded configuration file.
type Config struct {
	Database           string            `yaml:"database"`
	Mode               string            `yaml:"mode"`
	DaysAgo            int               `yaml:"days_ago"`
	UpdateIntervalMin  float64           `yaml:"update_interval_min"`
	LookbackMarginDays *int              `yaml:"lookback_margin_days"`
	Timezone           string            `yaml:"timezone"`
	Timeouts           Timeouts          `yaml:"timeouts"`
	Ignore             []string          `yaml:"ignore"`
	FriendlyNames      map[string]string `yaml:"friendly_names"`
	Accounts           []source.Account  `yaml:"accounts"`
	Scraper            Scraper           `yaml:"scraper"`
	Notify             Notify            `yaml:"notify"`
}

// Timeouts bound external calls. Zero values select the engine defaults.
type Timeouts struct {
	Fetch Duration `yaml:"fetch"`
	Store Duration `yaml:"store"`
	Send  Duration `yaml:"send"`
}

// Scraper selects the source adapter: an external command or a fixture file.
type Scraper struct {
	Command []string          `yaml:"command"`
	Fixture string            `yaml:"fixture"`
	Env     map[string]string `yaml:"env"`
}

// Notify configures rendering and the delivery channel.
type Notify struct {
	Channel      string       `yaml:"channel"`
	SMTP         SMTP         `yaml:"smtp"`
	Notion       Notion       `yaml:"notion"`
	StatusLabels StatusLabels `yaml:"status_labels"`
	DateLayout   string       `yaml:"date_layout"`
	Currency     string       `yaml:"currency"`
}

// SMTP configures mail delivery.
type SMTP struct {
	Service string     `yaml:"service"`
	Host    string     `yaml:"host"`
	Port    int        `yaml:"port"`
	Auth    SMTPAuth   `yaml:"auth"`
	From    string     `yaml:"from"`
	To      StringList `yaml:"to"`
}

// SMTPAuth holds mail server credentials.
type SMTPAuth struct {
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// Notion configures the Notion channel.
type Notion struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// StatusLabels overrides the displayed status names.
type StatusLabels struct {
	Pending string `yaml:"pending"`
	Final   string `yaml:"final"`
}

// Duration is a time.Duration written as "90s" or "3m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// StringList accepts a single string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = StringList{value.Value}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*l = list
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with the variable's value. Bare $VAR is left
// alone so passwords containing '$' survive. Unset variables are an error.
func expandEnv(data []byte, lookup func(string) (string, bool)) ([]byte, error) {
	var missing []string
	out := envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name := string(envRef.FindSubmatch(ref)[1])
		v, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return []byte(v)
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("unset environment variables: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Load reads, validates and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Load without the file read. lookup resolves ${VAR} references.
func Parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	data, err := expandEnv(data, lookup)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil, errors.New("config is empty")
	}
	if err := checkSchema(doc); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Mode == "" {
		c.Mode = string(engine.ModeContinuous)
	}
	if c.DaysAgo == 0 {
		c.DaysAgo = DefaultDaysAgo
	}
	if c.UpdateIntervalMin == 0 {
		c.UpdateIntervalMin = DefaultUpdateIntervalMin
	}
	if c.LookbackMarginDays == nil {
		margin := DefaultLookbackMarginDays
		c.LookbackMarginDays = &margin
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Notify.Channel == "" {
		c.Notify.Channel = DefaultChannel
	}
}

// Validate checks the rules the schema cannot express.
func (c *Config) Validate() error {
	var errs []error

	if _, err := engine.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}

	if len(c.Accounts) == 0 {
		errs = append(errs, errors.New("at least one account is required"))
	}
	seen := make(map[string]bool)
	for _, acct := range c.Accounts {
		if err := acct.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[acct.Name()] {
			errs = append(errs, fmt.Errorf("account %q: duplicate name, set distinct labels", acct.Name()))
		}
		seen[acct.Name()] = true
	}

	switch {
	case len(c.Scraper.Command) > 0 && c.Scraper.Fixture != "":
		errs = append(errs, errors.New("scraper: set command or fixture, not both"))
	case len(c.Scraper.Command) == 0 && c.Scraper.Fixture == "":
		errs = append(errs, errors.New("scraper: command or fixture is required"))
	}

	switch c.Notify.Channel {
	case ChannelSMTP:
		s := c.Notify.SMTP
		if s.Service == "" && s.Host == "" {
			errs = append(errs, errors.New("notify.smtp: service or host is required"))
		}
		if s.From == "" || len(s.To) == 0 {
			errs = append(errs, errors.New("notify.smtp: from and to are required"))
		}
	case ChannelNotion:
		if c.Notify.Notion.Token == "" || c.Notify.Notion.DatabaseID == "" {
			errs = append(errs, errors.New("notify.notion: token and database_id are required"))
		}
	case ChannelLog:
	default:
		errs = append(errs, fmt.Errorf("notify.channel: unknown channel %q", c.Notify.Channel))
	}

	return errors.Join(errs...)
}

// Interval is the pause between cycles.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateIntervalMin * float64(time.Minute))
}

// LookbackMargin returns the tracker bootstrap margin in days.
func (c *Config) LookbackMargin() int {
	if c.LookbackMarginDays == nil {
		return DefaultLookbackMarginDays
	}
	return *c.LookbackMarginDays
}

// Location loads the display timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// EngineTimeouts converts the configured timeouts.
func (c *Config) EngineTimeouts() engine.Timeouts {
	return engine.Timeouts{
		Fetch: time.Duration(c.Timeouts.Fetch),
		Store: time.Duration(c.Timeouts.Store),
		Send:  time.Duration(c.Timeouts.Send),
	}
}
