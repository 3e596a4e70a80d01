package formatter

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Anoka2002/codecraftagent/internal/metrics"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/Anoka2002/codecraftagent/internal/formatter")

// DefaultJavaJar is where the java formatter jar is expected when not configured
const DefaultJavaJar = "backend/google-java-format-1.15.0-all-deps.jar"

// Formatter rewrites source code of one language into canonical style
type Formatter interface {
	Format(ctx context.Context, code string) (string, error)
}

// Checker is implemented by formatters that can report whether their tool is installed
type Checker interface {
	Available() bool
}

// CommandFormatter pipes code through an external executable
type CommandFormatter struct {
	Argv          []string
	RequiredFiles []string
	Runner        Runner
}

// NewCommandFormatter creates a formatter for argv using the os/exec runner
func NewCommandFormatter(argv ...string) *CommandFormatter {
	return &CommandFormatter{Argv: argv, Runner: ExecRunner{}}
}

// Format sends code on stdin and returns stdout trimmed of surrounding whitespace
func (f *CommandFormatter) Format(ctx context.Context, code string) (string, error) {
	if len(f.Argv) == 0 {
		return "", errors.New("empty formatter command")
	}

	runner := f.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	out, err := runner.Run(ctx, Command{Name: f.Argv[0], Args: f.Argv[1:], Stdin: code})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Available reports whether the executable and required files exist
func (f *CommandFormatter) Available() bool {
	if len(f.Argv) == 0 || !LookPath(f.Argv[0]) {
		return false
	}
	for _, path := range f.RequiredFiles {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// DefaultCommands returns the built-in dispatch table
func DefaultCommands(javaJar string) map[string][]string {
	if javaJar == "" {
		javaJar = DefaultJavaJar
	}
	prettier := []string{"prettier", "--stdin-filepath", "file.js"}
	return map[string][]string{
		"python":     {"black", "-"},
		"javascript": prettier,
		"typescript": prettier,
		"go":         {"gofmt"},
		"java":       {"java", "-jar", javaJar, "-"},
	}
}

// Options configures a Dispatcher
type Options struct {
	Timeout     time.Duration
	Concurrency int
	JavaJar     string
	Overrides   map[string][]string
	Runner      Runner
}

// Dispatcher maps language tags to formatters. Format never fails.
type Dispatcher struct {
	formatters map[string]Formatter
	timeout    time.Duration
	sem        chan struct{}
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher with no formatters registered
func NewDispatcher(logger *zap.Logger, timeout time.Duration, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Dispatcher{
		formatters: make(map[string]Formatter),
		timeout:    timeout,
		sem:        make(chan struct{}, concurrency),
		logger:     logger,
	}
}

// NewDefaultDispatcher registers the built-in table, then applies overrides.
// An override with an empty argv removes the tag.
func NewDefaultDispatcher(logger *zap.Logger, opts Options) *Dispatcher {
	d := NewDispatcher(logger, opts.Timeout, opts.Concurrency)

	commands := DefaultCommands(opts.JavaJar)
	for tag, argv := range opts.Overrides {
		commands[strings.ToLower(tag)] = argv
	}

	for tag, argv := range commands {
		if len(argv) == 0 {
			continue
		}
		cf := &CommandFormatter{Argv: argv, Runner: opts.Runner}
		if argv[0] == "java" {
			for i, arg := range argv {
				if arg == "-jar" && i+1 < len(argv) {
					cf.RequiredFiles = append(cf.RequiredFiles, argv[i+1])
				}
			}
		}
		d.Register(tag, cf)
	}

	return d
}

// Register adds or replaces the formatter for a tag
func (d *Dispatcher) Register(tag string, f Formatter) {
	d.formatters[strings.ToLower(tag)] = f
}

// Lookup returns the formatter for a tag, case-insensitively
func (d *Dispatcher) Lookup(tag string) (Formatter, bool) {
	f, ok := d.formatters[strings.ToLower(tag)]
	return f, ok
}

// Tags lists the registered tags in sorted order
func (d *Dispatcher) Tags() []string {
	tags := make([]string, 0, len(d.formatters))
	for tag := range d.formatters {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Available reports per tag whether the backing tool is installed
func (d *Dispatcher) Available() map[string]bool {
	status := make(map[string]bool, len(d.formatters))
	for tag, f := range d.formatters {
		if c, ok := f.(Checker); ok {
			status[tag] = c.Available()
		} else {
			status[tag] = true
		}
	}
	return status
}

// Format returns code formatted for tag, or the original code on any failure
func (d *Dispatcher) Format(ctx context.Context, code, tag string) string {
	normalized := strings.ToLower(tag)
	label := metrics.LanguageLabel(normalized)

	f, ok := d.formatters[normalized]
	if !ok {
		d.logger.Warn("no formatter implemented for language", zap.String("language", tag))
		metrics.FormatterRuns.WithLabelValues(label, OutcomeUnsupported).Inc()
		return code
	}

	ctx, span := tracer.Start(ctx, "formatter.Format")
	span.SetAttributes(attribute.String("language", normalized))
	defer span.End()

	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	case <-ctx.Done():
		d.logger.Error("formatter slot not acquired", zap.String("language", normalized), zap.Error(ctx.Err()))
		metrics.FormatterRuns.WithLabelValues(label, OutcomeTimeout).Inc()
		return code
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	formatted, err := f.Format(ctx, code)
	if err != nil {
		outcome := Outcome(err)
		span.RecordError(err)
		span.SetAttributes(attribute.String("outcome", outcome))
		metrics.FormatterRuns.WithLabelValues(label, outcome).Inc()

		if outcome == OutcomeNotFound {
			d.logger.Error("formatter not installed or not on PATH",
				zap.String("language", normalized),
				zap.Error(err),
			)
		} else {
			d.logger.Error("formatter failed",
				zap.String("language", normalized),
				zap.String("outcome", outcome),
				zap.Error(err),
			)
		}
		return code
	}

	metrics.FormatterRuns.WithLabelValues(label, OutcomeOK).Inc()
	d.logger.Info("code formatted",
		zap.String("language", normalized),
		zap.Duration("duration", time.Since(start)),
	)
	return formatted
}
