package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// DefaultPort is the ReductStore listening port used when none is declared
const DefaultPort = 8383

// DefaultLicensePath is the in-workload destination for the license file
const DefaultLicensePath = "/reduct.lic"

// ValidLogLevels enumerates the accepted workload log levels
var ValidLogLevels = []string{"info", "debug", "warning", "error", "critical"}

// Options is the declared configuration schema. Every field is statically
// typed; unknown or mistyped fields are rejected at decode time.
type Options struct {
	LogLevel          string `yaml:"log-level"`
	Port              int    `yaml:"port"`
	APIBasePath       string `yaml:"api-base-path"`
	LicensePath       string `yaml:"license-path"`
	LicenseFile       string `yaml:"license-file"`
	RetentionPolicy   string `yaml:"retention-policy"`
	TLSEnabled        bool   `yaml:"tls-enabled"`
	CertSecretRef     string `yaml:"cert-secret-ref"`
	AnonymousAccess   bool   `yaml:"anonymous-access"`
	APITokenSecretRef string `yaml:"api-token-secret-ref"`

	// Deployment identity, supplied by the platform rather than the user
	ModelName string `yaml:"-"`
	AppName   string `yaml:"-"`
}

// Defaults returns the options the schema declares when nothing is set
func Defaults() *Options {
	return &Options{
		LogLevel:    "info",
		Port:        DefaultPort,
		LicensePath: DefaultLicensePath,
		AppName:     "reductstore",
	}
}

// Load reads and decodes the declared options file. Unknown fields are a
// decode error, not a warning.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	opts := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(opts); err != nil {
		return nil, &types.ConfigValidationError{Field: path, Reason: err.Error()}
	}
	return opts, nil
}

// Validate checks required fields, ranges, and mutually exclusive settings
func (o *Options) Validate() error {
	level := strings.ToLower(o.LogLevel)
	if !validLogLevel(level) {
		return &types.ConfigValidationError{
			Field:  "log-level",
			Reason: fmt.Sprintf("invalid log level: '%s'", o.LogLevel),
		}
	}
	if o.Port < 1 || o.Port > 65535 {
		return &types.ConfigValidationError{
			Field:  "port",
			Reason: fmt.Sprintf("port %d outside 1-65535", o.Port),
		}
	}
	if o.AnonymousAccess && o.APITokenSecretRef != "" {
		return &types.ConfigValidationError{
			Field:  "anonymous-access",
			Reason: "anonymous-access and api-token-secret-ref are mutually exclusive",
		}
	}
	if o.TLSEnabled && o.CertSecretRef == "" {
		return &types.ConfigValidationError{
			Field:  "tls-enabled",
			Reason: "tls-enabled requires cert-secret-ref",
		}
	}
	if o.LicensePath != "" && !strings.HasPrefix(o.LicensePath, "/") {
		return &types.ConfigValidationError{
			Field:  "license-path",
			Reason: "license-path must be absolute",
		}
	}
	return nil
}

// BasePath returns the normalized API base path: leading slash enforced,
// trailing slash stripped, defaulting to "/<model>-<app>".
func (o *Options) BasePath() string {
	path := o.APIBasePath
	if path == "" {
		path = fmt.Sprintf("/%s-%s", o.ModelName, o.AppName)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func validLogLevel(level string) bool {
	for _, l := range ValidLogLevels {
		if level == l {
			return true
		}
	}
	return false
}
