package publisher

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// DefaultLogPath is where the workload writes its log inside the container
const DefaultLogPath = "/var/log/reductstore"

// Records computes the owned fields to publish on every established
// relation. Deterministic and side-effect-free: the caller writes the
// records. It never reads back what was just written. When desired is nil
// (the build failed this invocation) it falls back to the best
// currently-known state from the observed plan, so peers are never left with
// stale endpoint information longer than necessary.
func Records(desired *types.DesiredConfig, observed *types.ObservedState) []*types.RelationRecord {
	service, port, basePath := bestKnown(desired, observed)

	var records []*types.RelationRecord
	for _, rel := range observed.Relations {
		fields := publish(rel.Role, service, port, basePath, desired)
		if fields == nil {
			continue
		}
		records = append(records, &types.RelationRecord{
			ID:        rel.ID,
			Role:      rel.Role,
			LocalData: fields,
		})
	}
	return records
}

func publish(role types.RelationRole, service string, port int, basePath string, desired *types.DesiredConfig) map[string]string {
	switch role {
	case types.RoleIngress:
		return map[string]string{
			types.FieldServiceName: service,
			types.FieldPort:        strconv.Itoa(port),
			types.FieldStripPrefix: "false",
		}
	case types.RoleBucket:
		return map[string]string{
			types.FieldRequestedBucket: service + "-data",
		}
	case types.RoleObservability:
		return map[string]string{
			types.FieldMetricsEndpoint: fmt.Sprintf("http://%s:%d%s/api/v1/metrics", service, port, basePath),
			types.FieldScrapePort:      strconv.Itoa(port),
			types.FieldDashboard:       dashboard(service, basePath, desired),
			types.FieldLogPath:         DefaultLogPath,
		}
	default:
		return nil
	}
}

// bestKnown prefers desired state and falls back to the observed plan
func bestKnown(desired *types.DesiredConfig, observed *types.ObservedState) (service string, port int, basePath string) {
	service = "reductstore"
	port = 8383
	basePath = ""

	if desired != nil {
		service = desired.Service
		port = desired.Port
		basePath = desired.Environment["RS_API_BASE_PATH"]
		return service, port, basePath
	}
	if observed.Plan != nil {
		if observed.Plan.Name != "" {
			service = observed.Plan.Name
		}
		if p, err := strconv.Atoi(observed.Plan.Environment["RS_PORT"]); err == nil {
			port = p
		}
		basePath = observed.Plan.Environment["RS_API_BASE_PATH"]
	}
	return service, port, basePath
}

type dashboardDefinition struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
	URL         string            `json:"url,omitempty"`
	APIDocs     string            `json:"api-docs"`
	Endpoints   map[string]string `json:"endpoints,omitempty"`
}

// dashboard renders the catalogue entry registered with observability peers
func dashboard(service, basePath string, desired *types.DesiredConfig) string {
	def := dashboardDefinition{
		Name:        "ReductStore",
		Description: "ReductStore is a time series object store for high-frequency unstructured data.",
		Icon:        "database",
		APIDocs:     "https://www.reduct.store/docs",
		Endpoints:   map[string]string{},
	}
	if desired != nil && desired.ExternalURL != "" {
		if api, err := ExternalAPIURL(desired.ExternalURL, basePath); err == nil {
			def.Endpoints["REST API"] = api
			def.Endpoints["Server Info"] = api + "/api/v1/info"
		}
		if ui, err := ExternalUIURL(desired.ExternalURL, basePath); err == nil {
			def.URL = ui
			def.Endpoints["UI"] = ui
		}
	}
	data, err := json.Marshal(def)
	if err != nil {
		return ""
	}
	return string(data)
}
