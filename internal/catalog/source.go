package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source fetches the full product list. The fetch is one-shot: it happens
// once at startup, and a failure leaves the index unloaded.
type Source interface {
	Fetch(ctx context.Context) ([]Product, error)
}

var (
	ErrSourceUnavailable = errors.New("catalog source unavailable")
	ErrBadRecord         = errors.New("bad catalog record")
)

// sourceProduct is the wire shape of the static catalog resource.
type sourceProduct struct {
	ID          string      `json:"id"`
	Name        string      `json:"nombre"`
	Description string      `json:"descripcion"`
	Price       json.Number `json:"precio"`
	Category    string      `json:"categoria"`
	Image       string      `json:"imagen"`
}

func decodeProducts(r io.Reader) ([]Product, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []sourceProduct
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	out := make([]Product, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.ID) == "" {
			return nil, fmt.Errorf("%w: missing id", ErrBadRecord)
		}

		cents, err := priceToCents(rec.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s: %v", ErrBadRecord, rec.ID, err)
		}

		out = append(out, Product{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Category:    rec.Category,
			PriceCents:  cents,
			Image:       rec.Image,
		})
	}
	return out, nil
}

// priceToCents converts the source's decimal price to cents. Prices must be
// non-negative and carry at most two decimal places.
func priceToCents(price json.Number) (int64, error) {
	if price == "" {
		return 0, errors.New("missing price")
	}

	d, err := decimal.NewFromString(price.String())
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	if d.IsNegative() {
		return 0, errors.New("negative price")
	}

	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, errors.New("price has more than two decimal places")
	}
	return cents.IntPart(), nil
}

// FileSource reads the catalog from a productos.json-shaped file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(_ context.Context) ([]Product, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	return decodeProducts(f)
}

// HTTPSource fetches the same payload over HTTP.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrSourceUnavailable
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, ErrSourceUnavailable
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrSourceUnavailable, resp.StatusCode)
	}

	return decodeProducts(resp.Body)
}
