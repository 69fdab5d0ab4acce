package sources

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ggranum/fetherbrik/internal/configerr"
)

// DefaultExtension is the file extension used when none is configured.
const DefaultExtension = "json5"

// FileReader reads the bootstrap configuration file and its environment
// overlay from Dir. Both files are optional.
type FileReader struct {
	Dir       string
	Name      string
	Extension string
}

// FileResult is the outcome of FileReader.Read.
type FileResult struct {
	Settings Map
	// Loaded lists the files that were read, base file first.
	Loaded []string
	// Warnings holds one missing-source error per absent file.
	Warnings []error
}

// BasePath returns the location of the base file.
func (r FileReader) BasePath() string {
	return filepath.Join(r.Dir, r.Name+"."+r.ext())
}

// OverlayPath returns the location of the overlay file for env.
func (r FileReader) OverlayPath(env string) string {
	return filepath.Join(r.Dir, r.Name+"."+env+"."+r.ext())
}

func (r FileReader) ext() string {
	ext := strings.TrimPrefix(r.Extension, ".")
	if ext == "" {
		return DefaultExtension
	}
	return strings.ToLower(ext)
}

// Read loads the base file then the overlay for env. Overlay settings replace
// base settings of the same name. Absent files become warnings; unreadable or
// unparsable files are fatal.
func (r FileReader) Read(env string) (FileResult, error) {
	parse, err := parserFor(r.ext())
	if err != nil {
		return FileResult{}, err
	}

	res := FileResult{Settings: Map{}}
	paths := []string{r.BasePath()}
	if env != "" {
		paths = append(paths, r.OverlayPath(env))
	}
	for _, path := range paths {
		m, err := readFile(path, parse)
		if errors.Is(err, configerr.ErrMissingSource) {
			res.Warnings = append(res.Warnings, err)
			continue
		}
		if err != nil {
			return FileResult{}, err
		}
		for k, v := range m {
			res.Settings[k] = v
		}
		res.Loaded = append(res.Loaded, path)
	}
	return res, nil
}

// ReadFile parses a single file, choosing the dialect from its extension.
func ReadFile(path string) (Map, error) {
	parse, err := parserFor(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, err
	}
	return readFile(path, parse)
}

type parseFunc func(op string, data []byte) (Map, error)

func parserFor(ext string) (parseFunc, error) {
	switch ext {
	case "json5", "json":
		return parseJSON5, nil
	case "yaml", "yml":
		return parseYAML, nil
	default:
		return nil, configerr.Newf(configerr.KindConfiguration, "read file",
			"unsupported configuration file extension %q", ext)
	}
}

func readFile(path string, parse parseFunc) (Map, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, configerr.Newf(configerr.KindMissingSource, "read file", "%s not found", path)
	}
	if err != nil {
		return nil, configerr.Wrap(configerr.KindMalformedInput, "read "+path, err)
	}
	return parse("parse "+path, data)
}
