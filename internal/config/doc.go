// Package config declares the schemas of the hello-world server and exposes
// the bound result as a typed, read-only Config. Values are resolved by the
// bootstrap package with precedence: command line > environment variables >
// configuration file > defaults.
package config
