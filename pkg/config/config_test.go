package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reductstore/reduct-operator/pkg/types"
)

func writeOptions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	opts, err := Load(writeOptions(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, DefaultPort, opts.Port)
	assert.Equal(t, DefaultLicensePath, opts.LicensePath)
}

func TestLoadOverrides(t *testing.T) {
	opts, err := Load(writeOptions(t, `
log-level: debug
port: 9000
retention-policy: 30d
tls-enabled: true
cert-secret-ref: secret:tls
`))
	require.NoError(t, err)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, 9000, opts.Port)
	assert.Equal(t, "30d", opts.RetentionPolicy)
	assert.True(t, opts.TLSEnabled)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeOptions(t, "log-levle: debug\n"))
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
}

func TestLoadRejectsMistypedFields(t *testing.T) {
	_, err := Load(writeOptions(t, "port: not-a-number\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(o *Options) {},
		},
		{
			name:    "invalid log level",
			mutate:  func(o *Options) { o.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:   "uppercase log level accepted",
			mutate: func(o *Options) { o.LogLevel = "WARNING" },
		},
		{
			name:    "port too small",
			mutate:  func(o *Options) { o.Port = 0 },
			wantErr: "outside 1-65535",
		},
		{
			name:    "port too large",
			mutate:  func(o *Options) { o.Port = 70000 },
			wantErr: "outside 1-65535",
		},
		{
			name: "anonymous access and token are mutually exclusive",
			mutate: func(o *Options) {
				o.AnonymousAccess = true
				o.APITokenSecretRef = "secret:token"
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "tls requires cert ref",
			mutate:  func(o *Options) { o.TLSEnabled = true },
			wantErr: "requires cert-secret-ref",
		},
		{
			name:    "relative license path rejected",
			mutate:  func(o *Options) { o.LicensePath = "reduct.lic" },
			wantErr: "must be absolute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Defaults()
			tt.mutate(opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, types.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBasePathNormalization(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"default from model and app", "", "/prod-reductstore"},
		{"missing leading slash", "store", "/store"},
		{"trailing slash stripped", "/store/", "/store"},
		{"root kept", "/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Defaults()
			opts.ModelName = "prod"
			opts.AppName = "reductstore"
			opts.APIBasePath = tt.path
			assert.Equal(t, tt.expected, opts.BasePath())
		})
	}
}
