package catalog

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Provider fetches the product catalog for a category. Implementations never
// let an error escape: any fetch or parse failure degrades to an empty
// catalog, so a broken feed renders an empty shelf instead of breaking pages.
type Provider interface {
	FetchCatalog(ctx context.Context, category string) []Product
}

// HTTPProvider fetches catalogs from a static JSON endpoint
// (<baseURL>/<category>.json).
type HTTPProvider struct {
	client  *http.Client
	baseURL string
	logger  *slog.Logger
	sfg     singleflight.Group // collapses concurrent fetches of the same category
}

// NewHTTPProvider creates a Provider backed by the JSON endpoint at baseURL.
func NewHTTPProvider(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "catalog"),
	}
}

// FetchCatalog retrieves all products for the given category.
func (p *HTTPProvider) FetchCatalog(ctx context.Context, category string) []Product {
	if !validCategory(category) {
		p.logger.Warn("Rejected catalog category", "category", category)
		return []Product{}
	}

	v, err, _ := p.sfg.Do(category, func() (any, error) {
		url := fmt.Sprintf("%s/%s.json", p.baseURL, category)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return decodeCatalog(body)
	})
	if err != nil {
		p.logger.Error("Failed to fetch catalog", "category", category, "error", err)
		return []Product{}
	}
	return v.([]Product)
}

// DirProvider reads catalogs from a directory of <category>.json files,
// matching the static /json layout the storefront ships with.
type DirProvider struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewDirProvider creates a Provider that reads catalog files from fsys.
func NewDirProvider(fsys fs.FS, logger *slog.Logger) *DirProvider {
	return &DirProvider{
		fsys:   fsys,
		logger: logger.With("component", "catalog"),
	}
}

// FetchCatalog retrieves all products for the given category.
func (p *DirProvider) FetchCatalog(_ context.Context, category string) []Product {
	if !validCategory(category) {
		p.logger.Warn("Rejected catalog category", "category", category)
		return []Product{}
	}
	data, err := fs.ReadFile(p.fsys, category+".json")
	if err != nil {
		p.logger.Error("Failed to read catalog file", "category", category, "error", err)
		return []Product{}
	}
	products, err := decodeCatalog(data)
	if err != nil {
		p.logger.Error("Failed to decode catalog file", "category", category, "error", err)
		return []Product{}
	}
	return products
}

// validCategory rejects names that could escape the catalog namespace.
func validCategory(category string) bool {
	if category == "" {
		return false
	}
	return !strings.ContainsAny(category, "/\\.")
}
