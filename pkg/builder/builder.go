package builder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reductstore/reduct-operator/pkg/config"
	"github.com/reductstore/reduct-operator/pkg/types"
)

const (
	// ServiceName is the supervised workload service
	ServiceName = "reductstore"

	// Command is the workload executable
	Command = "reductstore"

	// TLS material mount paths, populated by the platform from the
	// declared cert secret
	certPath = "/etc/reductstore/tls/cert.pem"
	keyPath  = "/etc/reductstore/tls/key.pem"

	// API token file mount path, populated from the declared token secret
	tokenPath = "/etc/reductstore/api-token"
)

// Result is the builder's verdict: either a complete desired configuration,
// or the precondition it is waiting on. Ignored lists same-role relations
// that lost the tie-break and were not merged.
type Result struct {
	Config    *types.DesiredConfig
	WaitingOn string
	Ignored   []string
}

// Build maps (declared options, relation data, storage status) to a complete
// desired configuration. Pure function: no I/O, and identical inputs always
// yield a structurally identical DesiredConfig.
func Build(opts *config.Options, rels []*types.RelationRecord, storage types.StorageStatus) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	if !storage.Attached {
		return Result{WaitingOn: "storage not attached"}, nil
	}

	var ignored []string
	ingress, ingressIgnored := firstByRole(rels, types.RoleIngress)
	ignored = append(ignored, ingressIgnored...)
	bucket, bucketIgnored := firstByRole(rels, types.RoleBucket)
	ignored = append(ignored, bucketIgnored...)
	_, obsIgnored := firstByRole(rels, types.RoleObservability)
	ignored = append(ignored, obsIgnored...)
	sort.Strings(ignored)

	basePath := opts.BasePath()
	env := map[string]string{
		"RS_LOG_LEVEL":     strings.ToUpper(opts.LogLevel),
		"RS_PORT":          fmt.Sprintf("%d", opts.Port),
		"RS_DATA_PATH":     storage.Path,
		"RS_API_BASE_PATH": basePath,
	}
	if opts.RetentionPolicy != "" {
		env["RS_RETENTION_POLICY"] = opts.RetentionPolicy
	}
	if opts.LicenseFile != "" {
		env["RS_LICENSE_PATH"] = opts.LicensePath
	}
	if opts.TLSEnabled {
		env["RS_CERT_PATH"] = certPath
		env["RS_CERT_KEY_PATH"] = keyPath
	}
	if opts.APITokenSecretRef != "" {
		env["RS_API_TOKEN_FILE"] = tokenPath
	}
	if bucket != nil {
		if endpoint := bucket.RemoteData[types.FieldBucketEndpoint]; endpoint != "" {
			env["RS_BUCKET_ENDPOINT"] = endpoint
		}
		if ref := bucket.RemoteData[types.FieldBucketCredRef]; ref != "" {
			env["RS_BUCKET_CREDENTIALS_REF"] = ref
		}
	}

	cfg := &types.DesiredConfig{
		Service:     ServiceName,
		Command:     Command,
		Environment: env,
		Port:        opts.Port,
		DataPath:    storage.Path,
		Readiness: &types.ReadinessCheck{
			URL:            fmt.Sprintf("http://localhost:%d%s/api/v1/alive", opts.Port, basePath),
			PeriodSeconds:  10,
			TimeoutSeconds: 3,
		},
	}
	if opts.LicenseFile != "" {
		cfg.LicenseSource = opts.LicenseFile
		cfg.LicensePath = opts.LicensePath
	}
	if ingress != nil {
		cfg.ExternalURL = ingress.RemoteData[types.FieldExternalURL]
	}

	return Result{Config: cfg, Ignored: ignored}, nil
}

// firstByRole returns the relation with the smallest stable identifier for
// the role; the rest are reported as ignored, never merged.
func firstByRole(rels []*types.RelationRecord, role types.RelationRole) (*types.RelationRecord, []string) {
	var matched []*types.RelationRecord
	for _, r := range rels {
		if r.Role == role {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}
	sort.Slice(matched, func(i, j int) bool {
		return types.CompareRelationIDs(matched[i].ID, matched[j].ID) < 0
	})
	var ignored []string
	for _, r := range matched[1:] {
		ignored = append(ignored, r.ID)
	}
	return matched[0], ignored
}
