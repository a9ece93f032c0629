// Package config loads the run configuration through a small parser
// registry. The format is chosen by file extension: YAML, HCL, TOML or
// JSON all decode into the same Config.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📄 DocumentArgs names the files one run touches
type DocumentArgs struct {
	Input           string `json:"input" yaml:"input" toml:"input" hcl:"input"`
	Edits           string `json:"edits" yaml:"edits" toml:"edits" hcl:"edits"`
	Output          string `json:"output,omitempty" yaml:"output,omitempty" toml:"output" hcl:"output,optional"`
	Author          string `json:"author,omitempty" yaml:"author,omitempty" toml:"author" hcl:"author,optional"`
	LostCommentsLog string `json:"lost_comments_log,omitempty" yaml:"lost_comments_log,omitempty" toml:"lost_comments_log" hcl:"lost_comments_log,optional"`
}

// 🔌 HostArgs configures the automation-host bridge
type HostArgs struct {
	Address        string `json:"address,omitempty" yaml:"address,omitempty" toml:"address" hcl:"address,optional"`
	ConnectRetries int    `json:"connect_retries,omitempty" yaml:"connect_retries,omitempty" toml:"connect_retries" hcl:"connect_retries,optional"`
	RetryInterval  string `json:"retry_interval,omitempty" yaml:"retry_interval,omitempty" toml:"retry_interval" hcl:"retry_interval,optional"`

	retryInterval time.Duration
}

// Interval returns the parsed retry interval. Valid after Validate.
func (h *HostArgs) Interval() time.Duration {
	return h.retryInterval
}

// 🖼️ LogoArgs configures logo placement. CompanyTarget names the edit
// record whose find/replace lengths drive the spacing compensation.
type LogoArgs struct {
	Path          string `json:"path" yaml:"path" toml:"path" hcl:"path"`
	Placeholder   string `json:"placeholder,omitempty" yaml:"placeholder,omitempty" toml:"placeholder" hcl:"placeholder,optional"`
	TargetHeight  int    `json:"target_height,omitempty" yaml:"target_height,omitempty" toml:"target_height" hcl:"target_height,optional"`
	CompanyTarget string `json:"company_target,omitempty" yaml:"company_target,omitempty" toml:"company_target" hcl:"company_target,optional"`
}

// 💬 CommentArgs tunes comment attachment
type CommentArgs struct {
	Retries    int    `json:"retries,omitempty" yaml:"retries,omitempty" toml:"retries" hcl:"retries,optional"`
	RetryDelay string `json:"retry_delay,omitempty" yaml:"retry_delay,omitempty" toml:"retry_delay" hcl:"retry_delay,optional"`

	retryDelay time.Duration
}

// Delay returns the parsed retry delay. Valid after Validate.
func (c *CommentArgs) Delay() time.Duration {
	return c.retryDelay
}

// 🚚 DeliveryArgs configures the GitHub round trip
type DeliveryArgs struct {
	Owner        string `json:"owner" yaml:"owner" toml:"owner" hcl:"owner"`
	Repo         string `json:"repo" yaml:"repo" toml:"repo" hcl:"repo"`
	Branch       string `json:"branch,omitempty" yaml:"branch,omitempty" toml:"branch" hcl:"branch,optional"`
	WorkflowFile string `json:"workflow_file,omitempty" yaml:"workflow_file,omitempty" toml:"workflow_file" hcl:"workflow_file,optional"`
	CommitPath   string `json:"commit_path,omitempty" yaml:"commit_path,omitempty" toml:"commit_path" hcl:"commit_path,optional"`
	TokenEnv     string `json:"token_env,omitempty" yaml:"token_env,omitempty" toml:"token_env" hcl:"token_env,optional"`
}

// 📊 DashboardArgs configures the local run dashboard
type DashboardArgs struct {
	Listen   string `json:"listen,omitempty" yaml:"listen,omitempty" toml:"listen" hcl:"listen,optional"`
	WatchDir string `json:"watch_dir,omitempty" yaml:"watch_dir,omitempty" toml:"watch_dir" hcl:"watch_dir,optional"`
}

// 📚 Config represents the complete run configuration
type Config struct {
	Document  DocumentArgs   `json:"document" yaml:"document" toml:"document" hcl:"document,block"`
	Host      *HostArgs      `json:"host,omitempty" yaml:"host,omitempty" toml:"host" hcl:"host,block"`
	Logo      *LogoArgs      `json:"logo,omitempty" yaml:"logo,omitempty" toml:"logo" hcl:"logo,block"`
	Comments  *CommentArgs   `json:"comments,omitempty" yaml:"comments,omitempty" toml:"comments" hcl:"comments,block"`
	Delivery  *DeliveryArgs  `json:"delivery,omitempty" yaml:"delivery,omitempty" toml:"delivery" hcl:"delivery,block"`
	Dashboard *DashboardArgs `json:"dashboard,omitempty" yaml:"dashboard,omitempty" toml:"dashboard" hcl:"dashboard,block"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks required fields and fills in defaults
func (cfg *Config) Validate() error {
	if cfg.Document.Input == "" {
		return errors.Errorf("document.input is required")
	}
	if cfg.Document.Edits == "" {
		return errors.Errorf("document.edits is required")
	}

	cfg.Document.Input = filepath.Clean(cfg.Document.Input)
	cfg.Document.Edits = filepath.Clean(cfg.Document.Edits)

	if cfg.Document.Output == "" {
		base := strings.TrimSuffix(filepath.Base(cfg.Document.Input), filepath.Ext(cfg.Document.Input))
		cfg.Document.Output = base + "_edited.pdf"
	}
	if cfg.Document.LostCommentsLog == "" {
		cfg.Document.LostCommentsLog = "lost_comments.log"
	}

	if cfg.Host == nil {
		cfg.Host = &HostArgs{}
	}
	if cfg.Host.Address == "" {
		cfg.Host.Address = "127.0.0.1:2002"
	}
	if cfg.Host.ConnectRetries == 0 {
		cfg.Host.ConnectRetries = 10
	}
	if cfg.Host.RetryInterval == "" {
		cfg.Host.RetryInterval = "2s"
	}
	d, err := time.ParseDuration(cfg.Host.RetryInterval)
	if err != nil {
		return errors.Errorf("host.retry_interval: %w", err)
	}
	cfg.Host.retryInterval = d

	if cfg.Logo != nil {
		if cfg.Logo.Path == "" {
			return errors.Errorf("logo.path is required when a logo block is present")
		}
		if cfg.Logo.Placeholder == "" {
			cfg.Logo.Placeholder = "<LOGO>"
		}
		if cfg.Logo.TargetHeight == 0 {
			cfg.Logo.TargetHeight = 1100
		}
	}

	if cfg.Comments == nil {
		cfg.Comments = &CommentArgs{}
	}
	if cfg.Comments.Retries == 0 {
		cfg.Comments.Retries = 3
	}
	if cfg.Comments.RetryDelay == "" {
		cfg.Comments.RetryDelay = "200ms"
	}
	d, err = time.ParseDuration(cfg.Comments.RetryDelay)
	if err != nil {
		return errors.Errorf("comments.retry_delay: %w", err)
	}
	cfg.Comments.retryDelay = d

	if cfg.Delivery != nil {
		if cfg.Delivery.Owner == "" || cfg.Delivery.Repo == "" {
			return errors.Errorf("delivery.owner and delivery.repo are required when a delivery block is present")
		}
		if cfg.Delivery.Branch == "" {
			cfg.Delivery.Branch = "main"
		}
		if cfg.Delivery.WorkflowFile == "" {
			cfg.Delivery.WorkflowFile = "convert.yml"
		}
		if cfg.Delivery.TokenEnv == "" {
			cfg.Delivery.TokenEnv = "GITHUB_TOKEN"
		}
	}

	if cfg.Dashboard != nil && cfg.Dashboard.Listen == "" {
		cfg.Dashboard.Listen = "127.0.0.1:8377"
	}

	return nil
}

// 📝 String returns a short one-line summary of the run
func (cfg *Config) String() string {
	return fmt.Sprintf("%s + %s -> %s", cfg.Document.Input, cfg.Document.Edits, cfg.Document.Output)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &cfg, nil
}
