package config

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/ggranum/fetherbrik/internal/bootstrap"
	"github.com/ggranum/fetherbrik/internal/environment"
	"github.com/ggranum/fetherbrik/internal/schema"
	"github.com/ggranum/fetherbrik/internal/sources"
)

const (
	// AppName identifies the hello-world application in logs.
	AppName = "hello-world"
	// Prefix selects the hello-world environment variables.
	Prefix = "HELLO_WORLD"
	// FileName is the hello-world bootstrap file name, without extension.
	FileName = "hello_world_bootstrap"
)

// Base holds the settings every server shares.
type Base struct {
	Env       environment.Environment
	HostName  string
	HTTPPort  int
	HTTPSPort int
	BasePath  string
}

// Config aggregates the hello-world runtime configuration. Values are
// copied out of a bound schema instance and never change afterwards.
type Config struct {
	Base

	DBURL         string
	DBPort        int
	DBName        string
	WipeDatabase  bool
	AdminName     string
	AdminPassword string
	CORSOrigins   []string

	RateLimitRPS         float64
	RateLimitBurst       int
	EnableRequestLogging bool
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration

	// Version comes from config/version.number.
	Version *semver.Version
	// RunID correlates the bootstrap log lines of this process.
	RunID string

	instance *schema.Instance
}

// Options returns the bootstrap options of the hello-world application.
func Options(args []string) bootstrap.Options {
	return bootstrap.Options{
		AppName:  AppName,
		Prefix:   Prefix,
		FileName: FileName,
		Args:     args,
	}
}

// Load runs b against AppSchema and returns the typed configuration.
func Load(b *bootstrap.Bootstrapper) (*Config, error) {
	res, err := b.Run(AppSchema())
	if err != nil {
		return nil, fmt.Errorf("bootstrap configuration: %w", err)
	}
	cfg, err := FromInstance(res.Instance)
	if err != nil {
		return nil, err
	}
	cfg.Version = res.Version
	cfg.RunID = res.RunID
	return cfg, nil
}

// LoadBase runs b against BaseSchema.
func LoadBase(b *bootstrap.Bootstrapper) (Base, error) {
	res, err := b.Run(BaseSchema())
	if err != nil {
		return Base{}, fmt.Errorf("bootstrap configuration: %w", err)
	}
	return baseFrom(res.Instance)
}

func baseFrom(in *schema.Instance) (Base, error) {
	env, err := environment.Parse(in.String(KeyEnv))
	if err != nil {
		return Base{}, err
	}
	return Base{
		Env:       env,
		HostName:  in.String(KeyHostName),
		HTTPPort:  in.Int(KeyHTTPPort),
		HTTPSPort: in.Int(KeyHTTPSPort),
		BasePath:  in.String(KeyBasePath),
	}, nil
}

// FromInstance copies an AppSchema instance into a Config.
func FromInstance(in *schema.Instance) (*Config, error) {
	if in.Schema().Name() != AppSchemaName {
		return nil, fmt.Errorf("expected %s schema instance, got %s", AppSchemaName, in.Schema().Name())
	}
	base, err := baseFrom(in)
	if err != nil {
		return nil, err
	}
	return &Config{
		Base:                 base,
		DBURL:                in.String(KeyDBURL),
		DBPort:               in.Int(KeyDBPort),
		DBName:               in.String(KeyDBName),
		WipeDatabase:         in.Bool(KeyWipeDatabase),
		AdminName:            in.String(KeyAdminName),
		AdminPassword:        in.String(KeyAdminPassword),
		CORSOrigins:          in.Set(KeyCORSOrigins),
		RateLimitRPS:         float64(in.Int(KeyRateLimitRPS)),
		RateLimitBurst:       in.Int(KeyRateLimitBurst),
		EnableRequestLogging: in.Bool(KeyRequestLogging),
		ShutdownGracePeriod:  seconds(in.Int(KeyShutdownGraceSeconds)),
		ReadHeaderTimeout:    seconds(in.Int(KeyReadHeaderTimeoutSeconds)),
		WriteTimeout:         seconds(in.Int(KeyWriteTimeoutSeconds)),
		IdleTimeout:          seconds(in.Int(KeyIdleTimeoutSeconds)),
		instance:             in,
	}, nil
}

// FromJSON5 binds a relaxed-JSON document against AppSchema.
func FromJSON5(data []byte) (*Config, error) {
	m, err := sources.ParseJSON5(data)
	if err != nil {
		return nil, err
	}
	in, err := schema.Bind(AppSchema(), m)
	if err != nil {
		return nil, err
	}
	return FromInstance(in)
}

// ToJSON5 encodes the effective configuration. With redact set, secrets are
// masked.
func (c *Config) ToJSON5(redact bool) ([]byte, error) {
	return c.instance.MarshalJSON5(redact)
}

// Instance returns the bound schema instance.
func (c *Config) Instance() *schema.Instance { return c.instance }

// Addr returns the HTTP listen address.
func (b Base) Addr() string {
	return fmt.Sprintf("%s:%d", b.HostName, b.HTTPPort)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
