// internal/tui/client.go
package tui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const maxBodyBytes = 4 << 20

// TokenRow is one line of the watch table.
type TokenRow struct {
	Mint      string
	Symbol    string
	Name      string
	Price     string
	MarketCap string
	Progress  float64
	Complete  bool
}

// APIClient reads the launchpad's public token list.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// FetchTokens pulls the current token cards.
func (c *APIClient) FetchTokens(ctx context.Context) ([]TokenRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tokens", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tokens: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	var rows []TokenRow
	gjson.GetBytes(body, "tokens").ForEach(func(_, t gjson.Result) bool {
		rows = append(rows, TokenRow{
			Mint:      t.Get("mint").String(),
			Symbol:    t.Get("symbol").String(),
			Name:      t.Get("name").String(),
			Price:     t.Get("price").String(),
			MarketCap: t.Get("market_cap").String(),
			Progress:  t.Get("curve_progress").Float(),
			Complete:  t.Get("curve_complete").Bool(),
		})
		return true
	})
	return rows, nil
}
