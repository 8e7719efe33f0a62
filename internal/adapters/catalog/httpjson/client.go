// Package httpjson reads the catalog from a static JSON resource: a GET of
// an array of products in the published shape (id, name, price, description,
// emoji, variants). The catalog cache calls Fetch at most once per session.
package httpjson

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andrifs/tokobolen/internal/domain"
)

type Client struct {
	url        string
	httpClient *http.Client
}

func New(url string) *Client {
	return &Client{url: url, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) Fetch(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog status %d", res.StatusCode)
	}
	var list []domain.Product
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}
