// Package logconfig loads the YAML file that declares access log appenders
// and event filters, and builds an accesslog.Context from it.
package logconfig

import (
	_ "embed"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"accesslogd/internal/accesslog"
	"accesslogd/internal/appender"
)

// DefaultFiles are probed in order when no file is configured.
var DefaultFiles = []string{
	"accesslog-test.yaml",
	"accesslog.yaml",
}

// FallbackName names the embedded configuration.
const FallbackName = "embedded:default.yaml"

//go:embed default.yaml
var fallback []byte

// Document is the parsed configuration file.
type Document struct {
	Appenders []AppenderSpec `yaml:"appenders"`
	Filters   []FilterSpec   `yaml:"filters"`
}

// AppenderSpec declares one appender.
type AppenderSpec struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`    // console, file or ref
	Encoder string `yaml:"encoder"` // json, console or pattern
	Pattern string `yaml:"pattern"`
	Path    string `yaml:"path"`
	Headers bool   `yaml:"headers"`
	NoColor bool   `yaml:"no_color"`
}

// FilterSpec declares one event filter.
type FilterSpec struct {
	Type     string   `yaml:"type"` // header, path or status
	Header   string   `yaml:"header"`
	Prefixes []string `yaml:"prefixes"`
	Min      int      `yaml:"min"`
	Max      int      `yaml:"max"`
	OnMatch  string   `yaml:"on_match"`
}

// Resolve picks the configuration source. An explicit path always wins;
// otherwise the first existing default file; otherwise the embedded one.
func Resolve(explicit string) (name string, data []byte, err error) {
	if explicit != "" {
		data, err = os.ReadFile(explicit)
		if err != nil {
			return "", nil, errors.Wrap(err, "reading access log config")
		}
		return explicit, data, nil
	}
	for _, candidate := range DefaultFiles {
		data, err = os.ReadFile(candidate)
		if err == nil {
			return candidate, data, nil
		}
		if !os.IsNotExist(err) {
			return "", nil, errors.Wrapf(err, "reading access log config %q", candidate)
		}
	}
	return FallbackName, fallback, nil
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing access log config YAML")
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	seen := make(map[string]bool, len(d.Appenders))
	for i, a := range d.Appenders {
		if a.Name == "" {
			return errors.Errorf("appender %d: name is required", i)
		}
		if seen[a.Name] {
			return errors.Errorf("appender %q: duplicate name", a.Name)
		}
		seen[a.Name] = true
		switch strings.ToLower(a.Type) {
		case "", "console", "ref":
		case "file":
			if a.Path == "" {
				return errors.Errorf("appender %q: path is required for file appenders", a.Name)
			}
		default:
			return errors.Errorf("appender %q: unknown type %q", a.Name, a.Type)
		}
		switch strings.ToLower(a.Encoder) {
		case "", "json", "console", "pattern":
		default:
			return errors.Errorf("appender %q: unknown encoder %q", a.Name, a.Encoder)
		}
	}
	for i, f := range d.Filters {
		switch strings.ToLower(f.Type) {
		case "header", "path":
		case "status":
			if f.Max > 0 && f.Max < f.Min {
				return errors.Errorf("filter %d: max %d is below min %d", i, f.Max, f.Min)
			}
		default:
			return errors.Errorf("filter %d: unknown type %q", i, f.Type)
		}
	}
	return nil
}

// Options carries what Build needs from outside the file.
type Options struct {
	Logger  zerolog.Logger
	Metrics *accesslog.Metrics
	// Refs supplies appenders for entries of type "ref", by name.
	Refs map[string]accesslog.Appender
}

// Build creates a context named name from doc. On error every appender
// created so far is closed.
func Build(name string, doc *Document, opts Options) (*accesslog.Context, error) {
	ctx := accesslog.NewContext(name, opts.Logger, opts.Metrics)
	for _, spec := range doc.Appenders {
		a, err := newAppender(spec, opts.Refs)
		if err == nil {
			err = ctx.AddAppender(a)
		}
		if err != nil {
			_ = ctx.Close()
			return nil, err
		}
	}
	for _, spec := range doc.Filters {
		ctx.AddFilter(newFilter(spec))
	}
	opts.Logger.Debug().Str("config", name).
		Int("appenders", len(doc.Appenders)).
		Int("filters", len(doc.Filters)).
		Msg("Initialized access log context")
	return ctx, nil
}

// Load resolves, parses and builds in one step.
func Load(explicit string, opts Options) (*accesslog.Context, error) {
	name, data, err := Resolve(explicit)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}
	return Build(name, doc, opts)
}

func newAppender(spec AppenderSpec, refs map[string]accesslog.Appender) (accesslog.Appender, error) {
	if strings.EqualFold(spec.Type, "ref") {
		a, ok := refs[spec.Name]
		if !ok {
			return nil, errors.Errorf("appender %q: no appender supplied for ref", spec.Name)
		}
		return borrowed{a}, nil
	}
	enc, err := newEncoder(spec)
	if err != nil {
		return nil, errors.Wrapf(err, "appender %q", spec.Name)
	}
	if strings.EqualFold(spec.Type, "file") {
		return appender.NewFile(spec.Name, spec.Path, enc)
	}
	return appender.NewConsole(spec.Name, enc), nil
}

// borrowed keeps a caller-owned appender open when the context closes.
type borrowed struct {
	accesslog.Appender
}

func (borrowed) Close() error { return nil }

func newEncoder(spec AppenderSpec) (appender.Encoder, error) {
	switch strings.ToLower(spec.Encoder) {
	case "json":
		return appender.JSONEncoder{Headers: spec.Headers}, nil
	case "console":
		return appender.ConsoleEncoder{NoColor: spec.NoColor}, nil
	default:
		return appender.NewPatternEncoder(spec.Pattern)
	}
}

func newFilter(spec FilterSpec) accesslog.EventFilter {
	switch strings.ToLower(spec.Type) {
	case "header":
		return accesslog.HeaderFilter{Header: spec.Header}
	case "path":
		return accesslog.PathFilter{Prefixes: spec.Prefixes}
	default:
		onMatch := accesslog.ParseDecision(spec.OnMatch)
		if onMatch == accesslog.Neutral {
			onMatch = accesslog.Accept
		}
		return accesslog.StatusFilter{Min: spec.Min, Max: spec.Max, OnMatch: onMatch}
	}
}
