// Command confcheck resolves a configuration the same way a server would at
// start-up and reports on it without starting anything.
//
//	confcheck --base-path ./app validate -- --env staging --httpPort 8080
//	confcheck print --format yaml --origins
//	confcheck --schema base fields
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ggranum/fetherbrik/internal/bootstrap"
	"github.com/ggranum/fetherbrik/internal/config"
	"github.com/ggranum/fetherbrik/internal/configerr"
	"github.com/ggranum/fetherbrik/internal/environment"
	"github.com/ggranum/fetherbrik/internal/logging"
	"github.com/ggranum/fetherbrik/internal/schema"
	"github.com/ggranum/fetherbrik/internal/sources"
)

func main() {
	logger, err := logging.New(logging.WithConsole(), logging.WithLevel(zapcore.DebugLevel))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	code := run(os.Args[1:], nil, os.Stdout, os.Stderr, logger)
	_ = logger.Sync()
	os.Exit(code)
}

type printOptions struct {
	format  string
	origins bool
	redact  bool
}

// run executes one confcheck invocation and returns the exit code. A nil
// environ reads the process environment. logger only receives bootstrap
// output when --verbose is set.
func run(args, environ []string, stdout, stderr io.Writer, logger *zap.Logger) int {
	app := kingpin.New("confcheck", "Resolve, validate and inspect a layered configuration.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(nil)

	basePath := app.Flag("base-path", "Application root; configuration files are read from <base-path>/config.").Default(".").String()
	prefix := app.Flag("prefix", "Environment variable prefix.").Default(config.Prefix).String()
	fileName := app.Flag("file-name", "Configuration file name without extension.").Default(config.FileName).String()
	extension := app.Flag("extension", "Configuration file extension (json5, json, yaml, yml).").Default(sources.DefaultExtension).String()
	defaultEnv := app.Flag("default-env", "Environment used when no source names one.").Default(environment.Development.String()).String()
	schemaName := app.Flag("schema", "Schema to bind against.").Default(config.AppSchemaName).Enum(config.BaseSchemaName, config.AppSchemaName)
	verbose := app.Flag("verbose", "Log every bootstrap step to stderr.").Short('v').Bool()

	validateCmd := app.Command("validate", "Bootstrap the configuration and report every violation.")
	validateTokens := validateCmd.Arg("settings", "Command-line settings, passed after --.").Strings()

	printCmd := app.Command("print", "Print the effective configuration.")
	var popts printOptions
	printCmd.Flag("format", "Output format.").Default("json5").EnumVar(&popts.format, "json5", "yaml")
	printCmd.Flag("origins", "Show which layer supplied each setting instead of the document.").BoolVar(&popts.origins)
	printCmd.Flag("redact", "Mask secret settings.").Default("true").BoolVar(&popts.redact)
	printTokens := printCmd.Arg("settings", "Command-line settings, passed after --.").Strings()

	fieldsCmd := app.Command("fields", "List the settings the schema declares.")

	command, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "confcheck: %v\n", err)
		return 2
	}

	if !*verbose {
		logger = zap.NewNop()
	}
	s, _ := config.SchemaByName(*schemaName)
	if command == fieldsCmd.FullCommand() {
		writeFields(stdout, s)
		return 0
	}

	env, err := environment.Parse(*defaultEnv)
	if err != nil {
		fmt.Fprintf(stderr, "confcheck: --default-env: %v\n", err)
		return 2
	}
	tokens := *validateTokens
	if command == printCmd.FullCommand() {
		tokens = *printTokens
	}
	b := bootstrap.New(bootstrap.Options{
		AppName:            config.AppName,
		Prefix:             *prefix,
		BasePath:           *basePath,
		FileName:           *fileName,
		FileExtension:      *extension,
		DefaultEnvironment: env,
		Args:               tokens,
		Environ:            environ,
	}, logger)

	res, err := b.Run(s)
	if err != nil {
		writeFailure(stderr, err)
		return 1
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}

	if command == validateCmd.FullCommand() {
		fmt.Fprintf(stdout, "configuration valid: schema=%s env=%s (from %s) version=%s\n",
			s.Name(), res.Environment, res.EnvironmentSource, res.Version)
		return 0
	}

	if err := writeEffective(stdout, res, popts); err != nil {
		fmt.Fprintf(stderr, "confcheck: %v\n", err)
		return 1
	}
	return 0
}

func writeFailure(w io.Writer, err error) {
	if set, ok := schema.Violations(err); ok {
		fmt.Fprintf(w, "invalid configuration (%d problem(s)):\n", len(set.Violations))
		for _, v := range set.Violations {
			fmt.Fprintf(w, "  - %s\n", v)
		}
		return
	}
	fmt.Fprintf(w, "%s error: %v\n", configerr.KindOf(err), err)
}

func writeEffective(w io.Writer, res *bootstrap.Result, opts printOptions) error {
	if opts.origins {
		writeOrigins(w, res, opts.redact)
		return nil
	}
	var (
		out []byte
		err error
	)
	if opts.format == "yaml" {
		out, err = res.Instance.EncodeYAML(opts.redact)
	} else {
		out, err = res.Instance.MarshalJSON5(opts.redact)
	}
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func writeOrigins(w io.Writer, res *bootstrap.Result, redact bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SETTING\tVALUE\tSOURCE")
	values := res.Instance.Values()
	for _, f := range res.Instance.Schema().Fields() {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if redact && f.Secret {
			v = schema.Redacted
		}
		origin := "fallback"
		if layer, ok := res.Origins[f.Name]; ok {
			origin = string(layer)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, v, origin)
	}
	_ = tw.Flush()
}

func writeFields(w io.Writer, s *schema.Schema) {
	defaults := s.Defaults()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SETTING\tTYPE\tREQUIRED\tDEFAULT\tCONSTRAINTS\tDESCRIPTION")
	for _, f := range s.Fields() {
		def, ok := defaults[f.Name]
		if !ok {
			def = f.Fallback
		}
		if f.Secret && def != "" {
			def = schema.Redacted
		}
		constraints := make([]string, len(f.Constraints))
		for i, c := range f.Constraints {
			constraints[i] = c.String()
		}
		sort.Strings(constraints)
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\t%s\n",
			f.Name, f.Type, f.Required(), dash(def), dash(strings.Join(constraints, "; ")), f.Help)
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
