package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio = "stdio"
	ModeBatch = "batch"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultOutput      = "sondages.xlsx"
	DefaultSession     = "sondages.session.yaml"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "SONDAGE"
)

// ErrVersionRequested is returned by Load when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the sondage reader
type Config struct {
	// Run mode: MCP over stdio or a one-shot batch run
	Mode string

	// Batch inputs and outputs
	Input       string
	Output      string
	Session     string
	FromSession bool

	// Directory that confines every path handed to the MCP tools
	PDFDirectory string

	// Extraction
	MergeThreshold float64
	NamePattern    string
	Keywords       []string
	Tolerances     map[string]sondage.ToleranceWindow

	// Depth ladder applied to every borehole, nil means ask per borehole
	Depth *sondage.DepthRange

	// Application configuration
	ConfigFile  string
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	tolerances := make(map[string]sondage.ToleranceWindow)
	for _, kw := range sondage.DefaultKeywords() {
		tolerances[kw.Label] = kw.Tolerance
	}

	return &Config{
		Mode:           ModeStdio,
		Output:         DefaultOutput,
		Session:        DefaultSession,
		PDFDirectory:   currentDir,
		MergeThreshold: sondage.DefaultMergeThreshold,
		NamePattern:    sondage.DefaultNamePattern,
		Keywords:       sondage.DefaultSettings().Labels(),
		Tolerances:     tolerances,
		Version:        "1.0.0",
		ServerName:     "mcp-sondage-reader",
		LogLevel:       DefaultLogLevel,
		MaxFileSize:    DefaultMaxFileSize,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:], os.Stderr)
}

// Load parses args, SONDAGE_* environment variables and an optional YAML
// config file, in increasing order of precedence: file, env, flags.
func Load(args []string, usage io.Writer) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	fs := pflag.NewFlagSet("mcp-sondage-reader", pflag.ContinueOnError)
	fs.SetOutput(usage)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)
	bindFlagsToViper(v, fs)
	setupUsageMessage(fs, usage)

	if checkVersionFlag(args) {
		return nil, ErrVersionRequested
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	if err := populateConfigFromViper(v, cfg); err != nil {
		return nil, err
	}

	// Positional argument is the input PDF
	if cfg.Input == "" && fs.NArg() > 0 {
		cfg.Input = fs.Arg(0)
	}

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
// Depth keys get no default so IsSet reports whether the user provided them.
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("session", cfg.Session)
	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("merge-threshold", cfg.MergeThreshold)
	v.SetDefault("name-pattern", cfg.NamePattern)
	v.SetDefault("keywords", cfg.Keywords)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Run mode: 'stdio' for the MCP server, 'batch' for a one-shot extraction")
	fs.String("input", "", "PDF report to extract (batch mode)")
	fs.String("output", cfg.Output, "Excel workbook written when every sondage validates")
	fs.String("session", cfg.Session, "Review session file (YAML)")
	fs.Bool("from-session", false, "Export an edited session instead of extracting a PDF")
	fs.String("dir", cfg.PDFDirectory, "Directory containing PDF files (stdio mode)")
	fs.String("config", "", "YAML configuration file")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.Float64("merge-threshold", cfg.MergeThreshold, "Horizontal distance in points under which Pf* and Pl* share a column")
	fs.String("name-pattern", cfg.NamePattern, "Regular expression matching sondage names")
	fs.StringSlice("keywords", cfg.Keywords, "Column keywords in order; the first two form the merge pair")
	fs.Float64("depth-start", 0, "First depth of the ladder (skips the per-sondage prompt)")
	fs.Float64("depth-end", 0, "Last depth of the ladder")
	fs.Float64("depth-step", 0, "Depth step")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet, w io.Writer) {
	fs.Usage = func() {
		name := "mcp-sondage-reader"
		fmt.Fprintf(w, "Usage of %s:\n", name)
		fmt.Fprintf(w, "\nSondage Reader - extracts pressuremeter readings (Pf*, Pl*, Module) from PDF reports\n\n")
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(w, "\nExamples:\n")
		fmt.Fprintf(w, "  %s                                            "+
			"# MCP stdio server, current directory\n", name)
		fmt.Fprintf(w, "  %s --mode=batch report.pdf                    "+
			"# extract, prompting for depths\n", name)
		fmt.Fprintf(w, "  %s --mode=batch --depth-start=1 --depth-end=12 --depth-step=1 report.pdf\n", name)
		fmt.Fprintf(w, "  %s --mode=batch --from-session --session=edited.yaml\n", name)
		fmt.Fprintf(w, "\nEnvironment Variables:\n")
		fmt.Fprintf(w, "  SONDAGE_MODE             Run mode\n")
		fmt.Fprintf(w, "  SONDAGE_DIR              PDF directory\n")
		fmt.Fprintf(w, "  SONDAGE_LOGLEVEL         Log level\n")
		fmt.Fprintf(w, "  SONDAGE_MAXFILESIZE      Maximum file size\n")
		fmt.Fprintf(w, "  SONDAGE_MERGE_THRESHOLD  Column merge threshold\n")
		fmt.Fprintf(w, "  SONDAGE_KEYWORDS         Comma separated keywords\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) error {
	cfg.Mode = v.GetString("mode")
	cfg.Input = v.GetString("input")
	cfg.Output = v.GetString("output")
	cfg.Session = v.GetString("session")
	cfg.FromSession = v.GetBool("from-session")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.ConfigFile = v.GetString("config")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.MergeThreshold = v.GetFloat64("merge-threshold")
	cfg.NamePattern = v.GetString("name-pattern")
	cfg.Keywords = splitList(v.GetStringSlice("keywords"))

	if v.IsSet("tolerances") {
		var tolerances map[string]sondage.ToleranceWindow
		if err := v.UnmarshalKey("tolerances", &tolerances); err != nil {
			return fmt.Errorf("invalid tolerances: %w", err)
		}
		for label, tol := range tolerances {
			cfg.Tolerances[canonicalLabel(label, cfg.Keywords)] = tol
		}
	}

	if v.IsSet("depth-start") || v.IsSet("depth-end") || v.IsSet("depth-step") {
		cfg.Depth = &sondage.DepthRange{
			Start: v.GetFloat64("depth-start"),
			End:   v.GetFloat64("depth-end"),
			Step:  v.GetFloat64("depth-step"),
		}
	}
	return nil
}

// splitList accepts both repeated values and a single comma separated string,
// the form environment variables take.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// canonicalLabel restores the keyword spelling; viper lower-cases map keys
func canonicalLabel(label string, keywords []string) string {
	for _, kw := range keywords {
		if strings.EqualFold(kw, label) {
			return kw
		}
	}
	return label
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeBatch {
		return errors.New("mode must be either 'stdio' or 'batch'")
	}

	if c.IsBatchMode() {
		if c.FromSession {
			if c.Session == "" {
				return errors.New("--from-session requires a session file")
			}
		} else if c.Input == "" {
			return errors.New("batch mode requires an input PDF")
		}
		if c.Output == "" {
			return errors.New("output workbook cannot be empty")
		}
	}

	if c.IsStdioMode() {
		if c.PDFDirectory == "" {
			return errors.New("PDF directory cannot be empty")
		}
		if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
			if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
				return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
			}
		} else if err != nil {
			return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.MergeThreshold < 0 {
		return errors.New("merge threshold must not be negative")
	}

	if len(c.Keywords) == 0 {
		return errors.New("at least one keyword is required")
	}

	for label, tol := range c.Tolerances {
		if tol.Left < 0 || tol.Right < 0 || tol.MinDY < 0 {
			return fmt.Errorf("tolerance window for %s must not be negative", label)
		}
	}

	if _, err := regexp.Compile(c.NamePattern); err != nil {
		return fmt.Errorf("invalid name pattern: %w", err)
	}

	if c.Depth != nil {
		if err := c.Depth.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Settings builds the extraction settings: keywords in configured order,
// each with its tolerance window or the default one.
func (c *Config) Settings() (sondage.Settings, error) {
	pattern, err := regexp.Compile(c.NamePattern)
	if err != nil {
		return sondage.Settings{}, fmt.Errorf("invalid name pattern: %w", err)
	}

	keywords := make([]sondage.Keyword, 0, len(c.Keywords))
	for _, label := range c.Keywords {
		tol, ok := c.Tolerances[label]
		if !ok {
			tol = sondage.DefaultTolerance
		}
		keywords = append(keywords, sondage.Keyword{Label: label, Tolerance: tol})
	}

	return sondage.Settings{
		Keywords:       keywords,
		MergeThreshold: c.MergeThreshold,
		NamePattern:    pattern,
	}, nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Input: %s, Output: %s, Session: %s, PDFDirectory: %s, "+
		"LogLevel: %s, MaxFileSize: %d, Keywords: %v, MergeThreshold: %g}",
		c.Mode, c.Input, c.Output, c.Session, c.PDFDirectory,
		c.LogLevel, c.MaxFileSize, c.Keywords, c.MergeThreshold)
}

// IsBatchMode returns true for one-shot extraction runs
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
