// Package merge overlays the raw setting layers into one flat mapping.
package merge

import (
	"strings"

	"dario.cat/mergo"

	"github.com/ggranum/fetherbrik/internal/configerr"
	"github.com/ggranum/fetherbrik/internal/environment"
	"github.com/ggranum/fetherbrik/internal/sources"
)

// Layer names a source layer, lowest precedence first.
type Layer string

const (
	LayerDefaults    Layer = "defaults"
	LayerFile        Layer = "file"
	LayerEnvironment Layer = "environment"
	LayerCommandLine Layer = "command line"
)

// Order lists the layers from lowest to highest precedence.
var Order = []Layer{LayerDefaults, LayerFile, LayerEnvironment, LayerCommandLine}

// Layers holds the raw mapping read from each source. Nil layers are empty.
type Layers struct {
	Defaults    sources.Map
	File        sources.Map
	Env         sources.Map
	CommandLine sources.Map
}

func (l Layers) get(layer Layer) sources.Map {
	switch layer {
	case LayerDefaults:
		return l.Defaults
	case LayerFile:
		return l.File
	case LayerEnvironment:
		return l.Env
	case LayerCommandLine:
		return l.CommandLine
	default:
		return nil
	}
}

// Merge overlays the layers so that, for every setting, the value comes from
// the highest-precedence layer that has it. An empty value still counts as
// present. The inputs are not modified.
//
// The file layer may not choose the environment: an env setting in it is
// rejected unless the environment or command-line layer also sets a
// non-blank env, in which case the file value is shadowed anyway. A
// non-blank merged env is rewritten to the canonical name of resolved; a
// blank one is left for the binder to reject.
func Merge(layers Layers, resolved environment.Environment) (sources.Map, error) {
	if layers.File.Has(environment.Key) &&
		!suppliesEnv(layers.Env) && !suppliesEnv(layers.CommandLine) {
		return nil, configerr.New(configerr.KindConfiguration, "merge",
			"env may not be set in a configuration file; use the command line or an environment variable")
	}

	merged := sources.Map{}
	for _, layer := range Order {
		src := layers.get(layer)
		if len(src) == 0 {
			continue
		}
		if err := mergo.Merge(&merged, src.Clone(), mergo.WithOverride); err != nil {
			return nil, configerr.Wrap(configerr.KindConfiguration, "merge "+string(layer), err)
		}
	}

	if suppliesEnv(merged) && resolved.Valid() {
		merged[environment.Key] = resolved.String()
	}
	return merged, nil
}

func suppliesEnv(m sources.Map) bool {
	return strings.TrimSpace(m[environment.Key]) != ""
}

// Origins reports, for each merged setting, the layer its value came from.
func Origins(layers Layers) map[string]Layer {
	out := map[string]Layer{}
	for _, layer := range Order {
		for k := range layers.get(layer) {
			out[k] = layer
		}
	}
	return out
}
