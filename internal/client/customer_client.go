package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErrors "github.com/unclebandit/customer-sync/internal/errors"
	"github.com/unclebandit/customer-sync/internal/model"
)

const fetchOp = "fetch customers"

// CustomerClient queries the remote customer API.
type CustomerClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewCustomerClient(baseURL, token string, timeout time.Duration) *CustomerClient {
	return &CustomerClient{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// FetchPage requests one page. Every failure comes back as *appErrors.NetworkError;
// retrying is up to the caller.
func (c *CustomerClient) FetchPage(ctx context.Context, q model.PageQuery) (*model.PageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(q), nil)
	if err != nil {
		return nil, appErrors.NewNetwork(fetchOp, 0, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, appErrors.NewNetwork(fetchOp, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, appErrors.NewNetwork(fetchOp, resp.StatusCode, fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))))
	}

	var page model.PageResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&page); err != nil {
		return nil, appErrors.NewNetwork(fetchOp, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return &page, nil
}

func (c *CustomerClient) pageURL(q model.PageQuery) string {
	sep := "?"
	if strings.Contains(c.BaseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spaginated=true&pageNo=%d&pageSize=%d&search=%s&sort=%s&filter=%s",
		c.BaseURL, sep,
		q.PageNo, q.PageSize,
		url.QueryEscape(strings.TrimSpace(q.Search)),
		url.QueryEscape(q.SortBy),
		url.QueryEscape(q.FilterBy),
	)
}
