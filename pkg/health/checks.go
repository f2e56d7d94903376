package health

import (
	"fmt"
	"net/http"
	"time"
)

// Status is the agent-side view of whether reporting can succeed.
type Status struct {
	ServerReachable bool      `json:"server_reachable"`
	CheckedAt       time.Time `json:"checked_at"`
	Healthy         bool      `json:"healthy"`
	Issues          []string  `json:"issues,omitempty"`
}

// Check probes the monitoring server's health endpoint.
func Check(serverURL string) *Status {
	status := &Status{
		Healthy:   true,
		CheckedAt: time.Now().UTC(),
		Issues:    []string{},
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		status.ServerReachable = false
		status.Healthy = false
		status.Issues = append(status.Issues, fmt.Sprintf("cannot reach server: %v", err))
		return status
	}
	resp.Body.Close()

	status.ServerReachable = resp.StatusCode == http.StatusOK
	if !status.ServerReachable {
		status.Healthy = false
		status.Issues = append(status.Issues, fmt.Sprintf("server unhealthy: %d", resp.StatusCode))
	}
	return status
}
