// Package dashboardapi is the HTTP client for the dashboard service and
// the analysis job service.
package dashboardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GregMSThompson/analytics-dashboard/internal/dto"
	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/filters"
	"github.com/GregMSThompson/analytics-dashboard/internal/jobs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

const serviceName = "dashboard-api"

type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

func New(baseURL string, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, log: log}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

// LoadDashboard fetches and validates one dashboard configuration.
func (c *Client) LoadDashboard(ctx context.Context, dashboardID string) (*models.Dashboard, error) {
	var d models.Dashboard
	if err := c.do(ctx, http.MethodGet, "/dashboards/"+url.PathEscape(dashboardID), nil, &d); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) ListDashboards(ctx context.Context) ([]string, error) {
	var resp dto.ListDashboardsResponse
	if err := c.do(ctx, http.MethodGet, "/dashboards", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dashboards, nil
}

// WidgetData fetches one widget's rows. The filters parameter is left
// out when no filter is active.
func (c *Client) WidgetData(ctx context.Context, dashboardID, widgetID string, f filters.State) (models.Dataset, error) {
	path := fmt.Sprintf("/dashboards/%s/widgets/%s/data", url.PathEscape(dashboardID), url.PathEscape(widgetID))
	if key := f.Key(); key != "" {
		path += "?" + url.Values{"filters": {key}}.Encode()
	}
	var resp dto.WidgetDataResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return models.Dataset{}, err
	}
	return resp.Data, nil
}

// ImportDashboard replaces a whole dashboard configuration.
func (c *Client) ImportDashboard(ctx context.Context, d *models.Dashboard) (*models.Dashboard, error) {
	var out models.Dashboard
	if err := c.do(ctx, http.MethodPut, "/dashboards/"+url.PathEscape(d.ID), d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SaveWidget(ctx context.Context, dashboardID string, draft dto.WidgetDraft) (*models.Widget, error) {
	var w models.Widget
	path := fmt.Sprintf("/dashboards/%s/widgets", url.PathEscape(dashboardID))
	if err := c.do(ctx, http.MethodPost, path, draft, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) DeleteWidget(ctx context.Context, widgetID string) error {
	return c.do(ctx, http.MethodDelete, "/widgets/"+url.PathEscape(widgetID), nil, nil)
}

// ExportURL is the download link for a widget export.
func (c *Client) ExportURL(widgetID, format string) string {
	return fmt.Sprintf("%s/widgets/%s/export?%s", c.baseURL, url.PathEscape(widgetID),
		url.Values{"format": {format}}.Encode())
}

func (c *Client) JobStatus(ctx context.Context, jobID string) (jobs.Status, error) {
	var st jobs.Status
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/status", nil, &st)
	return st, err
}

func (c *Client) JobResults(ctx context.Context, jobID string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/results", nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.NewNetworkError(serviceName, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewNetworkError(serviceName, err)
	}
	c.log.Debug("dashboard api call", "method", method, "path", path, "status", resp.StatusCode)

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return errs.NewExternalServiceError(serviceName, "malformed response", false, err)
		}
	}
	if resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errs.NewExternalServiceError(serviceName, "malformed response data", false, err)
	}
	return nil
}

func statusError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusNotFound:
		return errs.NewNotFoundError(message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return errs.NewValidationError(message)
	case status >= 500:
		return errs.NewNetworkError(serviceName, fmt.Errorf("status %d: %s", status, message))
	}
	return errs.NewExternalServiceError(serviceName, message, false, fmt.Errorf("status %d", status))
}
