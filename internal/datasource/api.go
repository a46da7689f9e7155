package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/GregMSThompson/analytics-dashboard/internal/errs"
	"github.com/GregMSThompson/analytics-dashboard/internal/models"
)

// APISource fetches rows from an HTTP endpoint returning JSON or CSV.
// When hosts is non-empty only those hosts may be fetched.
type APISource struct {
	client   *http.Client
	maxBytes int64
	hosts    map[string]struct{}
}

func NewAPISource(client *http.Client, maxBytes int64, hosts ...string) *APISource {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxObjectBytes
	}
	s := &APISource{client: client, maxBytes: maxBytes}
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			if s.hosts == nil {
				s.hosts = make(map[string]struct{})
			}
			s.hosts[h] = struct{}{}
		}
	}
	return s
}

func (s *APISource) Read(ctx context.Context, url string) (models.Dataset, error) {
	if err := s.checkURL(url); err != nil {
		return models.Dataset{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Dataset{}, errs.NewValidationError("invalid api url: " + err.Error())
	}
	req.Header.Set("Accept", "application/json, text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.Dataset{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Dataset{}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return models.Dataset{}, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(payload)) > s.maxBytes {
		return models.Dataset{}, errs.NewValidationError(fmt.Sprintf("response from %s exceeds %d bytes", url, s.maxBytes))
	}

	format := FormatJSON
	if strings.Contains(resp.Header.Get("Content-Type"), "csv") {
		format = FormatCSV
	}
	return decode(format, payload)
}

// checkURL accepts http(s) urls whose host, with or without port, is in
// the allowlist.
func (s *APISource) checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errs.NewValidationError("api source path must be an http(s) url")
	}
	if s.hosts == nil {
		return nil
	}
	host := strings.ToLower(u.Host)
	if _, ok := s.hosts[host]; ok {
		return nil
	}
	if _, ok := s.hosts[strings.ToLower(u.Hostname())]; ok {
		return nil
	}
	return errs.NewValidationError("api host not allowed: " + u.Host)
}
