package supervisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/reductstore/reduct-operator/pkg/types"
)

// Client is the remote supervisor API: the agent that starts, stops, and
// monitors the managed workload process. All methods are blocking remote
// calls and carry the caller's context deadline.
type Client interface {
	// Plan returns the currently installed process plan, or nil when no
	// plan has been installed yet.
	Plan(ctx context.Context) (*types.ProcessPlan, error)

	// SetPlan replaces the installed process plan with the given one.
	// Setting an identical plan is a no-op on the remote side.
	SetPlan(ctx context.Context, plan *types.ProcessPlan) error

	// ServiceStatus reports the process state for the named service
	ServiceStatus(ctx context.Context, name string) (types.ProcessState, error)

	// Start starts the named service if it is not already running
	Start(ctx context.Context, name string) error

	// Restart stops and starts the named service
	Restart(ctx context.Context, name string) error

	// PushFile writes a file into the workload filesystem
	PushFile(ctx context.Context, path string, data []byte, mode os.FileMode) error

	// FileExists reports whether a path exists in the workload filesystem
	FileExists(ctx context.Context, path string) (bool, error)
}

const defaultTimeout = 10 * time.Second

// HTTPClient talks to the supervisor's HTTP+JSON API, normally over a local
// unix socket.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a supervisor client for the given unix socket path
func NewClient(socketPath string) *HTTPClient {
	return &HTTPClient{
		baseURL: "http://localhost",
		client: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// NewClientForURL creates a supervisor client for an explicit base URL.
// Used by tests and non-socket deployments.
func NewClientForURL(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

type planPayload struct {
	Name        string            `json:"name"`
	Command     string            `json:"command"`
	Args        []string          `json:"args,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	Readiness   *readinessPayload `json:"readiness,omitempty"`
}

type readinessPayload struct {
	URL            string `json:"url"`
	PeriodSeconds  int    `json:"period-seconds,omitempty"`
	TimeoutSeconds int    `json:"timeout-seconds,omitempty"`
}

type serviceStatusPayload struct {
	Status string `json:"status"`
}

type serviceActionPayload struct {
	Action string `json:"action"`
}

type filePayload struct {
	Path string `json:"path"`
	Data []byte `json:"data"`
	Mode uint32 `json:"mode"`
}

// Plan fetches the installed process plan
func (c *HTTPClient) Plan(ctx context.Context) (*types.ProcessPlan, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/v1/plan", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("supervisor returned %d fetching plan", status)
	}
	var p planPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return p.toPlan(), nil
}

// SetPlan installs the given process plan, replacing any previous one
func (c *HTTPClient) SetPlan(ctx context.Context, plan *types.ProcessPlan) error {
	payload := fromPlan(plan)
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, status, err := c.do(ctx, http.MethodPut, "/v1/plan", data)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("supervisor returned %d setting plan", status)
	}
	return nil
}

// ServiceStatus reports the process state for the named service
func (c *HTTPClient) ServiceStatus(ctx context.Context, name string) (types.ProcessState, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/v1/services/"+url.PathEscape(name), nil)
	if err != nil {
		return types.ProcessNotStarted, err
	}
	if status == http.StatusNotFound {
		return types.ProcessNotStarted, nil
	}
	if status != http.StatusOK {
		return types.ProcessNotStarted, fmt.Errorf("supervisor returned %d fetching service status", status)
	}
	var s serviceStatusPayload
	if err := json.Unmarshal(body, &s); err != nil {
		return types.ProcessNotStarted, fmt.Errorf("failed to decode service status: %w", err)
	}
	return types.ProcessState(s.Status), nil
}

// Start starts the named service
func (c *HTTPClient) Start(ctx context.Context, name string) error {
	return c.serviceAction(ctx, name, "start")
}

// Restart restarts the named service
func (c *HTTPClient) Restart(ctx context.Context, name string) error {
	return c.serviceAction(ctx, name, "restart")
}

func (c *HTTPClient) serviceAction(ctx context.Context, name, action string) error {
	data, err := json.Marshal(serviceActionPayload{Action: action})
	if err != nil {
		return err
	}
	_, status, err := c.do(ctx, http.MethodPost, "/v1/services/"+url.PathEscape(name), data)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return fmt.Errorf("supervisor returned %d for %s", status, action)
	}
	return nil
}

// PushFile writes a file into the workload filesystem
func (c *HTTPClient) PushFile(ctx context.Context, path string, data []byte, mode os.FileMode) error {
	payload, err := json.Marshal(filePayload{Path: path, Data: data, Mode: uint32(mode)})
	if err != nil {
		return err
	}
	_, status, err := c.do(ctx, http.MethodPost, "/v1/files", payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("supervisor returned %d pushing file", status)
	}
	return nil
}

// FileExists reports whether a path exists in the workload filesystem
func (c *HTTPClient) FileExists(ctx context.Context, path string) (bool, error) {
	_, status, err := c.do(ctx, http.MethodGet, "/v1/files?path="+url.QueryEscape(path), nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("supervisor returned %d checking file", status)
	}
}

// do performs one request and classifies connection failures and 5xx
// responses as transient.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &types.TransientIOError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &types.TransientIOError{Op: method + " " + path, Err: err}
	}
	if resp.StatusCode >= 500 {
		return nil, 0, &types.TransientIOError{
			Op:  method + " " + path,
			Err: fmt.Errorf("supervisor returned %d", resp.StatusCode),
		}
	}
	return data, resp.StatusCode, nil
}

func (p *planPayload) toPlan() *types.ProcessPlan {
	plan := &types.ProcessPlan{
		Name:        p.Name,
		Command:     p.Command,
		Args:        p.Args,
		Environment: p.Environment,
	}
	if p.Readiness != nil {
		plan.Readiness = &types.ReadinessCheck{
			URL:            p.Readiness.URL,
			PeriodSeconds:  p.Readiness.PeriodSeconds,
			TimeoutSeconds: p.Readiness.TimeoutSeconds,
		}
	}
	return plan
}

func fromPlan(plan *types.ProcessPlan) *planPayload {
	p := &planPayload{
		Name:        plan.Name,
		Command:     plan.Command,
		Args:        plan.Args,
		Environment: plan.Environment,
	}
	if plan.Readiness != nil {
		p.Readiness = &readinessPayload{
			URL:            plan.Readiness.URL,
			PeriodSeconds:  plan.Readiness.PeriodSeconds,
			TimeoutSeconds: plan.Readiness.TimeoutSeconds,
		}
	}
	return p
}
