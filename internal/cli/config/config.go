// Package config merges the run configuration from defaults, an optional
// YAML file, PDFDISTILL_* environment variables, and command-line flags,
// in that order of precedence, and validates the result.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/docshelf/pdfdistill/pkg/distill"
	"github.com/docshelf/pdfdistill/pkg/distill/language"
	"github.com/docshelf/pdfdistill/pkg/distill/pdfconv"
)

const (
	// EnvPrefix namespaces environment overrides, e.g.
	// PDFDISTILL_LOGGING_WORKERS=8.
	EnvPrefix = "PDFDISTILL"
)

// Summary output formats accepted by --summary-format.
const (
	SummaryText = "text"
	SummaryJSON = "json"
)

// configSearchPaths lists where a config file is looked for when --config is
// not given, in order.
func configSearchPaths() []string {
	paths := []string{"config.yaml", "pdfdistill.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".pdfdistill.yaml"))
	}
	return paths
}

// Settings is the fully resolved configuration of one invocation: everything
// the engine needs plus the presentation concerns the library does not own.
type Settings struct {
	Input      string
	OutputRoot string
	OutputExt  distill.OutputExt
	Language   language.Language
	Pattern    string
	Recursive  bool

	Workers  int
	FailFast bool
	Backend  string

	MaxFileSizeMB  int
	MaxPages       int
	TimeoutPerFile time.Duration

	Markdown distill.MarkdownOptions
	Text     distill.TextOptions

	// Console and reporting concerns.
	LogLevel      slog.Level
	LogFile       string
	Progress      bool
	Quiet         bool
	Verbose       bool
	SummaryFormat string

	// ConfigFileUsed records which file was loaded, if any.
	ConfigFileUsed string
}

// EngineOptions maps the settings onto the library options. The caller still
// supplies Converter, Prober, Hooks, and the log handlers.
func (s *Settings) EngineOptions() distill.Options {
	return distill.Options{
		InputPath:      s.Input,
		Pattern:        s.Pattern,
		Recursive:      s.Recursive,
		OutputRoot:     s.OutputRoot,
		OutputExt:      s.OutputExt,
		Language:       s.Language,
		Backend:        s.Backend,
		Workers:        s.Workers,
		FailFast:       s.FailFast,
		MaxFileSizeMB:  s.MaxFileSizeMB,
		MaxPages:       s.MaxPages,
		TimeoutPerFile: s.TimeoutPerFile,
		Markdown:       s.Markdown,
		Text:           s.Text,
	}
}

// fileConfig mirrors the YAML schema. Unknown keys are a hard error so a
// typoed limit never silently falls back to its default.
type fileConfig struct {
	Limits struct {
		MaxFileSizeMB     int `mapstructure:"max_file_size_mb"`
		MaxPages          int `mapstructure:"max_pages"`
		TimeoutPerFileSec int `mapstructure:"timeout_per_file_sec"`
	} `mapstructure:"limits"`
	Serialization struct {
		Markdown struct {
			AddYAMLHeader bool `mapstructure:"add_yaml_header"`
		} `mapstructure:"markdown"`
		Text struct {
			TableDelimiter string `mapstructure:"table_delimiter"`
		} `mapstructure:"text"`
	} `mapstructure:"serialization"`
	Logging struct {
		Level    string `mapstructure:"level"`
		LogFile  string `mapstructure:"log_file"`
		Progress bool   `mapstructure:"progress"`
		FailFast bool   `mapstructure:"fail_fast"`
		Workers  int    `mapstructure:"workers"`
	} `mapstructure:"logging"`
	Backend string `mapstructure:"backend"`
}

// RegisterFlags defines every run flag on fs. The root command and the tests
// share one definition so bindings cannot drift.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("input", "i", "", "PDF file or directory to convert (required)")
	fs.String("output-root", distill.DefaultOutputRoot, "directory converted output is written under")
	fs.String("out-ext", string(distill.OutputText), "output format: txt or md")
	fs.String("lang", "", "language override: es or en (default: detect from path)")
	fs.String("pattern", distill.DefaultPattern, "glob applied to file names for directory input")
	fs.Bool("recursive", false, "descend into subdirectories of the input")
	fs.IntP("workers", "w", distill.DefaultWorkers, fmt.Sprintf("parallel conversions (%d-%d)", distill.MinWorkers, distill.MaxWorkers))
	fs.String("backend", pdfconv.BackendAuto, "PDF text extraction backend: auto, native or poppler")
	fs.String("log-file", "", "event log path (default logs/run-<timestamp>.log)")
	fs.Bool("fail-fast", false, "stop dispatching new files after the first failure")
	fs.BoolP("quiet", "q", false, "suppress progress display and non-error console output")
	fs.Bool("no-progress", false, "disable the progress display")
	fs.String("summary-format", SummaryText, "run summary format: text or json")
	fs.BoolP("verbose", "v", false, "enable debug logging")
}

// Load resolves the effective settings for one run. cfgFile is the --config
// value, empty meaning search the default locations; flags carries the parsed
// command-line flags, which take precedence over everything else.
func Load(cfgFile string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		for _, candidate := range configSearchPaths() {
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				v.SetConfigFile(candidate)
				break
			}
		}
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) && cfgFile == "" {
				// A search candidate vanished between stat and read.
			} else {
				return nil, fmt.Errorf("%w: reading config file %s: %v", distill.ErrInvalidOptions, v.ConfigFileUsed(), err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Flags with a schema equivalent bind onto the same keys so the usual
	// precedence chain applies to them.
	for key, flagName := range map[string]string{
		"logging.workers":   "workers",
		"logging.fail_fast": "fail-fast",
		"logging.log_file":  "log-file",
		"backend":           "backend",
	} {
		flag := flags.Lookup(flagName)
		if flag == nil {
			return nil, fmt.Errorf("flag --%s is not registered", flagName)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("binding flag --%s: %w", flagName, err)
		}
	}

	var fc fileConfig
	if err := v.UnmarshalExact(&fc); err != nil {
		return nil, fmt.Errorf("%w: %v", distill.ErrInvalidOptions, err)
	}

	s := &Settings{
		OutputRoot:     distill.DefaultOutputRoot,
		Pattern:        distill.DefaultPattern,
		OutputExt:      distill.OutputText,
		Workers:        fc.Logging.Workers,
		FailFast:       fc.Logging.FailFast,
		Backend:        fc.Backend,
		MaxFileSizeMB:  fc.Limits.MaxFileSizeMB,
		MaxPages:       fc.Limits.MaxPages,
		TimeoutPerFile: time.Duration(fc.Limits.TimeoutPerFileSec) * time.Second,
		Markdown:       distill.MarkdownOptions{AddYAMLHeader: fc.Serialization.Markdown.AddYAMLHeader},
		Text:           distill.TextOptions{TableDelimiter: fc.Serialization.Text.TableDelimiter},
		LogFile:        fc.Logging.LogFile,
		Progress:       fc.Logging.Progress,
		SummaryFormat:  SummaryText,
		ConfigFileUsed: v.ConfigFileUsed(),
	}

	level, err := parseLevel(fc.Logging.Level)
	if err != nil {
		return nil, err
	}
	s.LogLevel = level

	if err := applyFlags(s, flags); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyFlags copies flag values whose keys live outside the YAML schema, and
// re-applies explicitly set booleans, which viper binding does not reliably
// distinguish from their defaults.
func applyFlags(s *Settings, flags *pflag.FlagSet) error {
	if in, _ := flags.GetString("input"); in != "" {
		s.Input = in
	}
	if flags.Changed("output-root") {
		s.OutputRoot, _ = flags.GetString("output-root")
	}
	if flags.Changed("pattern") {
		s.Pattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("recursive") {
		s.Recursive, _ = flags.GetBool("recursive")
	}
	if flags.Changed("out-ext") {
		ext, _ := flags.GetString("out-ext")
		s.OutputExt = distill.OutputExt(strings.TrimPrefix(strings.ToLower(ext), "."))
	}
	if flags.Changed("lang") {
		raw, _ := flags.GetString("lang")
		lang, err := language.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: --lang: %v", distill.ErrInvalidOptions, err)
		}
		s.Language = lang
	}
	if flags.Changed("summary-format") {
		s.SummaryFormat, _ = flags.GetString("summary-format")
	}
	if flags.Changed("verbose") {
		s.Verbose, _ = flags.GetBool("verbose")
		if s.Verbose {
			s.LogLevel = slog.LevelDebug
		}
	}
	if flags.Changed("quiet") {
		s.Quiet, _ = flags.GetBool("quiet")
	}
	if flags.Changed("no-progress") {
		if noProgress, _ := flags.GetBool("no-progress"); noProgress {
			s.Progress = false
		}
	}
	if s.Quiet {
		s.Progress = false
	}
	return nil
}

func (s *Settings) validate() error {
	if s.Input == "" {
		return fmt.Errorf("%w: input path is required (-i, --input)", distill.ErrInvalidOptions)
	}
	if s.Workers < distill.MinWorkers || s.Workers > distill.MaxWorkers {
		return fmt.Errorf("%w: workers must be between %d and %d, got %d",
			distill.ErrInvalidOptions, distill.MinWorkers, distill.MaxWorkers, s.Workers)
	}
	if !s.OutputExt.IsValid() {
		return fmt.Errorf("%w: unsupported output extension %q (supported: txt, md)", distill.ErrInvalidOptions, s.OutputExt)
	}
	if s.MaxFileSizeMB <= 0 {
		return fmt.Errorf("%w: limits.max_file_size_mb must be positive, got %d", distill.ErrInvalidOptions, s.MaxFileSizeMB)
	}
	if s.MaxPages <= 0 {
		return fmt.Errorf("%w: limits.max_pages must be positive, got %d", distill.ErrInvalidOptions, s.MaxPages)
	}
	if s.TimeoutPerFile <= 0 {
		return fmt.Errorf("%w: limits.timeout_per_file_sec must be positive, got %s", distill.ErrInvalidOptions, s.TimeoutPerFile)
	}
	switch s.Backend {
	case pdfconv.BackendAuto, pdfconv.BackendNative, pdfconv.BackendPoppler:
	default:
		return fmt.Errorf("%w: unknown backend %q (supported: %s, %s, %s)",
			distill.ErrInvalidOptions, s.Backend, pdfconv.BackendAuto, pdfconv.BackendNative, pdfconv.BackendPoppler)
	}
	switch s.SummaryFormat {
	case SummaryText, SummaryJSON:
	default:
		return fmt.Errorf("%w: unknown summary format %q (supported: %s, %s)",
			distill.ErrInvalidOptions, s.SummaryFormat, SummaryText, SummaryJSON)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("limits.max_file_size_mb", distill.DefaultMaxFileSizeMB)
	v.SetDefault("limits.max_pages", distill.DefaultMaxPages)
	v.SetDefault("limits.timeout_per_file_sec", distill.DefaultTimeoutPerFileSec)
	v.SetDefault("serialization.markdown.add_yaml_header", false)
	v.SetDefault("serialization.text.table_delimiter", distill.DefaultTableDelimiter)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_file", "")
	v.SetDefault("logging.progress", true)
	v.SetDefault("logging.fail_fast", false)
	v.SetDefault("logging.workers", distill.DefaultWorkers)
	v.SetDefault("backend", pdfconv.BackendAuto)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q (supported: debug, info, warn, error)", distill.ErrInvalidOptions, level)
	}
}
