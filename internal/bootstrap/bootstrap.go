// Package bootstrap runs the one-shot configuration sequence of a process:
// resolve the environment, read every source, merge, then bind and validate
// against a schema. A process may run it at most once.
//
// The once-only guard lives in the Bootstrapper, not in package state, so a
// process must create exactly one Bootstrapper and hand the result to its
// components; a second Bootstrapper would run the sequence again.
package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ggranum/fetherbrik/internal/configerr"
	"github.com/ggranum/fetherbrik/internal/environment"
	"github.com/ggranum/fetherbrik/internal/merge"
	"github.com/ggranum/fetherbrik/internal/schema"
	"github.com/ggranum/fetherbrik/internal/sources"
)

// Options configures a Bootstrapper. Zero values take the documented defaults.
type Options struct {
	AppName string
	// Prefix selects environment variables (<Prefix>_NAME) and names the
	// environment selector variable <Prefix>_ENV.
	Prefix string
	// BasePath is the application root. Defaults to ".".
	BasePath string
	// ConfigDir holds configuration files. Defaults to <BasePath>/config.
	ConfigDir string
	// FileName is the configuration file name without extension. Defaults to
	// the lower-cased prefix followed by "_bootstrap".
	FileName      string
	FileExtension string
	// DefaultEnvironment applies when no source names one. Defaults to Development.
	DefaultEnvironment environment.Environment
	// Args are the raw command-line tokens, without the program name.
	Args []string
	// Environ is the environment snapshot in KEY=value form. Defaults to os.Environ().
	Environ []string
	// Defaults overlay the schema's built-in defaults.
	Defaults sources.Map
}

func (o Options) withDefaults() Options {
	if o.BasePath == "" {
		o.BasePath = "."
	}
	if o.ConfigDir == "" {
		o.ConfigDir = filepath.Join(o.BasePath, "config")
	}
	if o.FileName == "" {
		base := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(o.Prefix), " ", "_"))
		if base == "" {
			o.FileName = "bootstrap"
		} else {
			o.FileName = base + "_bootstrap"
		}
	}
	if o.FileExtension == "" {
		o.FileExtension = sources.DefaultExtension
	}
	if !o.DefaultEnvironment.Valid() {
		o.DefaultEnvironment = environment.Development
	}
	if o.Environ == nil {
		o.Environ = os.Environ()
	}
	return o
}

// Result is the outcome of a successful run.
type Result struct {
	RunID             string
	Environment       environment.Environment
	EnvironmentSource environment.Source
	Instance          *schema.Instance
	// Merged is the flat mapping that was bound.
	Merged  sources.Map
	Origins map[string]merge.Layer
	// Files lists the configuration files that were read.
	Files    []string
	Version  *semver.Version
	Warnings []string
}

// Bootstrapper drives the sequence. It is safe to call State from any
// goroutine while Run is in progress.
type Bootstrapper struct {
	opts    Options
	logger  *zap.Logger
	started atomic.Bool
	state   atomic.Int32
}

// New creates a Bootstrapper. A nil logger discards output.
func New(opts Options, logger *zap.Logger) *Bootstrapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bootstrapper{opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective options.
func (b *Bootstrapper) Options() Options { return b.opts }

// State returns the current step.
func (b *Bootstrapper) State() State { return State(b.state.Load()) }

func (b *Bootstrapper) advance(s State, log *zap.Logger) {
	b.state.Store(int32(s))
	log.Debug("bootstrap state", zap.Stringer("state", s))
}

// Run executes the sequence against s. Only the first call runs; later calls
// return a reentrant error without touching the first run's state.
func (b *Bootstrapper) Run(s *schema.Schema) (*Result, error) {
	if !b.started.CompareAndSwap(false, true) {
		return nil, configerr.New(configerr.KindReentrant, "bootstrap", "configuration can only be bootstrapped once per process")
	}

	runID := uuid.NewString()
	log := b.logger.With(
		zap.String("bootstrap_id", runID),
		zap.String("app", b.opts.AppName),
		zap.String("schema", s.Name()),
	)

	res, err := b.run(s, log)
	if err != nil {
		b.advance(StateFailed, log)
		fields := []zap.Field{zap.Error(err), zap.Stringer("kind", configerr.KindOf(err))}
		if set, ok := schema.Violations(err); ok {
			msgs := make([]string, len(set.Violations))
			for i, v := range set.Violations {
				msgs[i] = v.String()
			}
			fields = append(fields, zap.Strings("violations", msgs))
		}
		log.Error("bootstrap failed", fields...)
		return nil, err
	}
	res.RunID = runID
	b.advance(StateValidated, log)
	log.Info("bootstrap complete",
		zap.Stringer("env", res.Environment),
		zap.Stringer("version", res.Version),
		zap.Strings("files", res.Files),
	)
	return res, nil
}

func (b *Bootstrapper) run(s *schema.Schema, log *zap.Logger) (*Result, error) {
	res := &Result{}
	warn := func(msg string) {
		res.Warnings = append(res.Warnings, msg)
		log.Warn(msg)
	}

	resolver := environment.Resolver{
		Prefix:  b.opts.Prefix,
		Dir:     b.opts.ConfigDir,
		Default: b.opts.DefaultEnvironment,
	}
	resolved, err := resolver.Resolve(b.opts.Args, b.opts.Environ)
	if err != nil {
		return nil, err
	}
	res.Environment = resolved.Environment
	res.EnvironmentSource = resolved.Source
	b.advance(StateEnvironmentResolved, log.With(
		zap.Stringer("env", resolved.Environment),
		zap.String("env_source", string(resolved.Source)),
	))

	files := sources.FileReader{
		Dir:       b.opts.ConfigDir,
		Name:      b.opts.FileName,
		Extension: b.opts.FileExtension,
	}
	fileRes, err := files.Read(resolved.Environment.String())
	if err != nil {
		return nil, err
	}
	for _, w := range fileRes.Warnings {
		warn(w.Error())
	}
	res.Files = fileRes.Loaded

	cli, err := sources.ParseCommandLine(b.opts.Args)
	if err != nil {
		return nil, err
	}
	env := sources.EnvReader{Prefix: b.opts.Prefix}.Read(b.opts.Environ)

	version, err := ReadVersion(b.opts.ConfigDir)
	if err != nil {
		warn(err.Error())
	}
	res.Version = version
	b.advance(StateSourcesRead, log)

	defaults := s.Defaults()
	for k, v := range b.opts.Defaults {
		defaults[k] = v
	}
	layers := merge.Layers{Defaults: defaults, File: fileRes.Settings, Env: env, CommandLine: cli}
	merged, err := merge.Merge(layers, resolved.Environment)
	if err != nil {
		return nil, err
	}
	res.Merged = merged
	res.Origins = merge.Origins(layers)
	b.advance(StateMerged, log)

	if !s.IsStrict() {
		for _, k := range s.UnknownKeys(merged) {
			warn("ignoring unknown setting " + k + " from " + string(res.Origins[k]))
		}
	}

	inst, err := schema.Bind(s, merged)
	if err != nil {
		return nil, err
	}
	res.Instance = inst
	return res, nil
}
