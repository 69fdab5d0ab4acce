package config

import (
	"github.com/ggranum/fetherbrik/internal/environment"
	"github.com/ggranum/fetherbrik/internal/schema"
	"github.com/ggranum/fetherbrik/internal/sources"
)

// Setting names shared by every schema.
const (
	KeyEnv       = environment.Key
	KeyHostName  = "hostName"
	KeyHTTPPort  = "httpPort"
	KeyHTTPSPort = "httpsPort"
	KeyBasePath  = "basePath"
)

// Setting names of the hello-world application.
const (
	KeyDBURL                    = "dbUrl"
	KeyDBPort                   = "dbPort"
	KeyDBName                   = "dbName"
	KeyWipeDatabase             = "wipeDatabase"
	KeyAdminName                = "adminName"
	KeyAdminPassword            = "adminPassword"
	KeyCORSOrigins              = "corsOrigins"
	KeyRateLimitRPS             = "rateLimitRps"
	KeyRateLimitBurst           = "rateLimitBurst"
	KeyRequestLogging           = "requestLogging"
	KeyShutdownGraceSeconds     = "shutdownGraceSeconds"
	KeyReadHeaderTimeoutSeconds = "readHeaderTimeoutSeconds"
	KeyWriteTimeoutSeconds      = "writeTimeoutSeconds"
	KeyIdleTimeoutSeconds       = "idleTimeoutSeconds"
)

const (
	// BaseSchemaName names the schema every application shares.
	BaseSchemaName = "base"
	// AppSchemaName names the hello-world application schema.
	AppSchemaName = "app"

	defaultHostName = "127.0.0.1"
	defaultBasePath = "./"
)

func baseFields() []schema.Field {
	return []schema.Field{
		{
			Name:        KeyEnv,
			Type:        schema.String,
			Constraints: []schema.Constraint{schema.MinLength(1), schema.OneOf(environment.Names()...)},
			Help:        "deployment environment",
		},
		{Name: KeyHostName, Type: schema.OptionalString, Fallback: defaultHostName, Help: "interface the server binds to"},
		{Name: KeyHTTPPort, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(1, 65535)}, Help: "HTTP listen port"},
		{Name: KeyHTTPSPort, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(1, 65535)}, Help: "HTTPS listen port"},
		{
			Name:        KeyBasePath,
			Type:        schema.OptionalString,
			Constraints: []schema.Constraint{schema.Length(1, 200)},
			Fallback:    defaultBasePath,
			Help:        "application root for runtime files",
		},
	}
}

// BaseSchema declares the settings every server needs. Ports have no
// defaults and must be supplied by a source.
func BaseSchema() *schema.Schema {
	return schema.MustNew(BaseSchemaName, nil, baseFields()...)
}

// AppSchema declares the hello-world application settings on top of the
// base settings.
func AppSchema() *schema.Schema {
	defaults := sources.Map{
		KeyHTTPSPort:                "8443",
		KeyDBPort:                   "5432",
		KeyWipeDatabase:             "false",
		KeyRateLimitRPS:             "25",
		KeyRateLimitBurst:           "50",
		KeyRequestLogging:           "true",
		KeyShutdownGraceSeconds:     "10",
		KeyReadHeaderTimeoutSeconds: "5",
		KeyWriteTimeoutSeconds:      "15",
		KeyIdleTimeoutSeconds:       "60",
	}
	fields := append(baseFields(),
		schema.Field{Name: KeyDBURL, Type: schema.OptionalString, Help: "database connection URL"},
		schema.Field{Name: KeyDBPort, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(0, 65535)}, Help: "database port"},
		schema.Field{Name: KeyDBName, Type: schema.String, Constraints: []schema.Constraint{schema.Length(2, 20)}, Help: "database name"},
		schema.Field{Name: KeyWipeDatabase, Type: schema.Bool, Help: "drop and recreate the database on start"},
		schema.Field{Name: KeyAdminName, Type: schema.OptionalString, Help: "initial administrator account"},
		schema.Field{Name: KeyAdminPassword, Type: schema.OptionalString, Secret: true, Help: "initial administrator password"},
		schema.Field{Name: KeyCORSOrigins, Type: schema.StringSet, Constraints: []schema.Constraint{schema.Size(0, 20)}, Help: "allowed CORS origins; empty allows any"},
		schema.Field{Name: KeyRateLimitRPS, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(0, 10000)}, Help: "requests per second per server; 0 disables"},
		schema.Field{Name: KeyRateLimitBurst, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(0, 10000)}, Help: "rate limiter burst"},
		schema.Field{Name: KeyRequestLogging, Type: schema.Bool, Help: "log every request"},
		schema.Field{Name: KeyShutdownGraceSeconds, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(0, 3600)}, Help: "graceful shutdown timeout"},
		schema.Field{Name: KeyReadHeaderTimeoutSeconds, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(1, 600)}, Help: "HTTP read header timeout"},
		schema.Field{Name: KeyWriteTimeoutSeconds, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(1, 600)}, Help: "HTTP write timeout"},
		schema.Field{Name: KeyIdleTimeoutSeconds, Type: schema.Int, Constraints: []schema.Constraint{schema.Range(1, 3600)}, Help: "HTTP keep-alive idle timeout"},
	)
	return schema.MustNew(AppSchemaName, defaults, fields...)
}

// SchemaByName returns the named schema.
func SchemaByName(name string) (*schema.Schema, bool) {
	switch name {
	case BaseSchemaName:
		return BaseSchema(), true
	case AppSchemaName:
		return AppSchema(), true
	default:
		return nil, false
	}
}
