package environment

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/ggranum/fetherbrik/internal/configerr"
	"github.com/ggranum/fetherbrik/internal/sources"
)

// Source names where a resolved environment came from.
type Source string

const (
	SourceCommandLine Source = "command line"
	SourceVariable    Source = "environment variable"
	SourceLocalFile   Source = "env.local.name"
	SourceFile        Source = "env.name"
	SourceDefault     Source = "default"
)

const flag = "--" + Key

// Resolver decides the active environment.
//
// Resolution order: a "--env <value>" command-line pair, then the
// <Prefix>_ENV variable, then the env.local.name and env.name files in Dir
// (when Dir is set), then Default.
type Resolver struct {
	Prefix  string
	Dir     string
	Default Environment
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Environment Environment
	Source      Source
	// Token is the raw value that was parsed.
	Token string
}

// VariableName returns the environment variable consulted by the resolver.
func (r Resolver) VariableName() string {
	if r.Prefix == "" {
		return strings.ToUpper(Key)
	}
	return r.Prefix + "_" + strings.ToUpper(Key)
}

// Resolve scans the raw command-line tokens and the environment snapshot.
func (r Resolver) Resolve(args, environ []string) (Resolution, error) {
	token, found, err := scanArgs(args)
	if err != nil {
		return Resolution{}, err
	}
	if found {
		return r.parse(token, SourceCommandLine)
	}

	if v, ok := env.ToMap(environ)[r.VariableName()]; ok && strings.TrimSpace(v) != "" {
		return r.parse(v, SourceVariable)
	}

	if r.Dir != "" {
		for _, src := range []Source{SourceLocalFile, SourceFile} {
			v, ok, err := readNameFile(filepath.Join(r.Dir, string(src)))
			if err != nil {
				return Resolution{}, err
			}
			if ok {
				return r.parse(v, src)
			}
		}
	}

	if !r.Default.Valid() {
		return Resolution{}, configerr.Newf(configerr.KindConfiguration, "resolve environment",
			"no environment given: pass %s or set %s", flag, r.VariableName())
	}
	return Resolution{Environment: r.Default, Source: SourceDefault, Token: r.Default.String()}, nil
}

func (r Resolver) parse(token string, src Source) (Resolution, error) {
	e, err := Parse(token)
	if err != nil {
		return Resolution{}, fmt.Errorf("%s: %w", src, err)
	}
	return Resolution{Environment: e, Source: src, Token: token}, nil
}

// scanArgs finds the last "--env <value>" pair. Other tokens are left for the
// command-line reader to judge.
func scanArgs(args []string) (string, bool, error) {
	var (
		token string
		found bool
	)
	for i := 0; i < len(args); i++ {
		if args[i] != flag {
			continue
		}
		if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
			return "", false, configerr.Newf(configerr.KindMalformedInput, "resolve environment",
				"%s requires a value", flag)
		}
		token = sources.Unquote(args[i+1])
		found = true
		i++
	}
	return token, found, nil
}

func readNameFile(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, configerr.Wrap(configerr.KindMalformedInput, "read "+path, err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false, nil
	}
	return line, true, nil
}
