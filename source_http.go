package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// httpQueryService talks to a data service exposing the routes served by
// `dps serve`. Non-2xx answers become *FetchError with the decoded
// {"message": ...} body when there is one.
type httpQueryService struct {
	baseURL string
	client  *http.Client
}

func newHTTPQueryService(baseURL string, timeout time.Duration) *httpQueryService {
	return &httpQueryService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *httpQueryService) InitialData(ctx context.Context, recordID string) (*DashboardPayload, error) {
	return s.get(ctx, "/api/records/"+url.PathEscape(recordID))
}

func (s *httpQueryService) DataForBAC(ctx context.Context, recordID, bac string) (*DashboardPayload, error) {
	q := url.Values{"bac": []string{bac}}
	return s.get(ctx, "/api/records/"+url.PathEscape(recordID)+"/scope?"+q.Encode())
}

func (s *httpQueryService) get(ctx context.Context, path string) (*DashboardPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Message: fmt.Sprintf("data service unreachable: %v", err)}
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		fe := &FetchError{
			Status:  resp.StatusCode,
			Message: "data service returned " + resp.Status,
		}
		var body ErrorBody
		if json.Unmarshal(content, &body) == nil && body.Message != "" {
			fe.Body = &body
		}
		return nil, fe
	}

	return decodePayload(content)
}
