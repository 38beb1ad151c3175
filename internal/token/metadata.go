// internal/token/metadata.go
package token

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Off-chain metadata documents are user-supplied; cap what we read.
const maxMetadataBytes = 1 << 20

// Metadata is the display subset of a token's off-chain metadata document.
type Metadata struct {
	Name        string
	Symbol      string
	Image       string
	Description string
}

// MetadataFetcher pulls the off-chain metadata JSON behind a token's
// metadata URI. The documents are free-form, so fields are extracted
// loosely instead of unmarshalled into a strict schema.
type MetadataFetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewMetadataFetcher(timeout time.Duration, logger *zap.Logger) *MetadataFetcher {
	return &MetadataFetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  logger.Named("metadata"),
	}
}

// Fetch downloads and extracts the display fields from a metadata URI.
func (f *MetadataFetcher) Fetch(ctx context.Context, uri string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata URI: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata body: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("metadata document is not valid JSON")
	}

	parsed := gjson.ParseBytes(body)
	meta := &Metadata{
		Name:        parsed.Get("name").String(),
		Symbol:      parsed.Get("symbol").String(),
		Image:       parsed.Get("image").String(),
		Description: parsed.Get("description").String(),
	}

	f.logger.Debug("Fetched token metadata",
		zap.String("uri", uri),
		zap.String("name", meta.Name),
		zap.String("symbol", meta.Symbol))

	return meta, nil
}
