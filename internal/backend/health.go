package backend

import (
	"context"
	"fmt"
)

// Health is the backend's liveness report.
type Health struct {
	Status string `json:"status"`
	Celery string `json:"celery,omitempty"`
}

// WorkerStatus describes the task workers behind the backend.
type WorkerStatus struct {
	Status      string         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Workers     map[string]any `json:"workers,omitempty"`
	ActiveTasks map[string]any `json:"active_tasks,omitempty"`
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	resp, err := c.http.R().SetContext(ctx).SetResult(&h).Get("/health")
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &h, nil
}

// Workers reports the state of the task workers. Legacy backends without a
// task queue answer 404.
func (c *Client) Workers(ctx context.Context) (*WorkerStatus, error) {
	var ws WorkerStatus
	resp, err := c.http.R().SetContext(ctx).SetResult(&ws).Get("/api/celery/status")
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &ws, nil
}
