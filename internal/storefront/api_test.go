package storefront_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/internal/session"
	"Storefront/internal/storefront"
)

func testProducts() []catalog.Product {
	return []catalog.Product{
		{ID: "A", Name: "Cuaderno", Description: "100 hojas", Category: "books", PriceCents: 250, Image: "cuaderno.jpg"},
		{ID: "B", Name: "Carro de Juguete", Description: "A escala", Category: "toys", PriceCents: 1000, Image: "carro.jpg"},
	}
}

func newStorefrontTS(t *testing.T, loaded bool) *httptest.Server {
	t.Helper()

	sessions := session.NewManager(time.Minute)
	if loaded {
		sessions.SetCatalog(testProducts())
	}

	s := &storefront.Server{
		Log:            zap.NewNop(),
		Sessions:       sessions,
		Tokens:         session.NewTokenMaker("test-secret"),
		SessionTTL:     time.Minute,
		StoreName:      "Librería Santa Rosa",
		WhatsAppNumber: "584244237456",
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "storefront",
	})

	return httptest.NewServer(h)
}

func doJSON(t *testing.T, method, url, token string, body any, out any, want int) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d body=%s", method, url, resp.StatusCode, want, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode response: %v (%s)", err, raw)
		}
	}
}

func newSession(t *testing.T, baseURL string) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
	}
	doJSON(t, http.MethodPost, baseURL+"/sessions", "", nil, &resp, 201)
	if resp.Token == "" {
		t.Fatalf("empty session token")
	}
	return resp.Token
}

type cartView struct {
	Lines []struct {
		ProductID  string `json:"product_id"`
		Name       string `json:"name"`
		PriceCents int64  `json:"price_cents"`
		Quantity   int    `json:"quantity"`
	} `json:"lines"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

func TestSessionRequired(t *testing.T) {
	ts := newStorefrontTS(t, true)
	defer ts.Close()

	doJSON(t, http.MethodGet, ts.URL+"/catalog/products", "", nil, nil, 401)
	doJSON(t, http.MethodGet, ts.URL+"/cart/", "bogus-token", nil, nil, 401)
}

func TestCatalogBrowse(t *testing.T) {
	ts := newStorefrontTS(t, true)
	defer ts.Close()
	token := newSession(t, ts.URL)

	var products []map[string]any
	doJSON(t, http.MethodGet, ts.URL+"/catalog/products", token, nil, &products, 200)
	if len(products) != 2 {
		t.Fatalf("products=%d, want 2", len(products))
	}

	var categories []string
	doJSON(t, http.MethodGet, ts.URL+"/catalog/categories", token, nil, &categories, 200)
	if len(categories) != 2 || categories[0] != "books" || categories[1] != "toys" {
		t.Fatalf("categories=%v", categories)
	}

	doJSON(t, http.MethodPut, ts.URL+"/catalog/filter", token,
		map[string]any{"search_term": "", "category": "toys"}, nil, 200)
	doJSON(t, http.MethodGet, ts.URL+"/catalog/products", token, nil, &products, 200)
	if len(products) != 1 || products[0]["id"] != "B" {
		t.Fatalf("toys filter: %v", products)
	}

	// Term "book" matches product A via its category field.
	doJSON(t, http.MethodPut, ts.URL+"/catalog/filter", token,
		map[string]any{"search_term": "book", "category": "all"}, nil, 200)
	doJSON(t, http.MethodGet, ts.URL+"/catalog/products", token, nil, &products, 200)
	if len(products) != 1 || products[0]["id"] != "A" {
		t.Fatalf("term filter: %v", products)
	}
}

func TestFilterIsPerSession(t *testing.T) {
	ts := newStorefrontTS(t, true)
	defer ts.Close()

	first := newSession(t, ts.URL)
	second := newSession(t, ts.URL)

	doJSON(t, http.MethodPut, ts.URL+"/catalog/filter", first,
		map[string]any{"search_term": "", "category": "toys"}, nil, 200)

	var products []map[string]any
	doJSON(t, http.MethodGet, ts.URL+"/catalog/products", second, nil, &products, 200)
	if len(products) != 2 {
		t.Fatalf("other session sees filtered catalog: %v", products)
	}
}

func TestCartFlow(t *testing.T) {
	ts := newStorefrontTS(t, true)
	defer ts.Close()
	token := newSession(t, ts.URL)

	var view cartView
	doJSON(t, http.MethodPost, ts.URL+"/cart/items/A/increment", token, nil, &view, 200)
	doJSON(t, http.MethodPost, ts.URL+"/cart/items/A/increment", token, nil, &view, 200)
	doJSON(t, http.MethodPost, ts.URL+"/cart/items/B/increment", token, nil, &view, 200)

	if len(view.Lines) != 2 {
		t.Fatalf("lines=%d, want 2", len(view.Lines))
	}
	if view.Lines[0].ProductID != "A" || view.Lines[0].Quantity != 2 {
		t.Fatalf("lines[0]=%+v, want A x2", view.Lines[0])
	}
	if view.TotalCents != 1500 || view.Total != "15.00" {
		t.Fatalf("total=%d (%s), want 1500 (15.00)", view.TotalCents, view.Total)
	}

	doJSON(t, http.MethodPut, ts.URL+"/cart/items/A", token,
		map[string]any{"quantity": 0}, &view, 200)
	if len(view.Lines) != 1 || view.Lines[0].ProductID != "B" || view.TotalCents != 1000 {
		t.Fatalf("after setQuantity(A,0): %+v", view)
	}

	doJSON(t, http.MethodPost, ts.URL+"/cart/items/B/decrement", token, nil, &view, 200)
	if len(view.Lines) != 0 || view.TotalCents != 0 {
		t.Fatalf("after decrement to zero: %+v", view)
	}
}

func TestCartRejections(t *testing.T) {
	ts := newStorefrontTS(t, true)
	defer ts.Close()
	token := newSession(t, ts.URL)

	// Unknown product: rejected, cart untouched.
	doJSON(t, http.MethodPut, ts.URL+"/cart/items/Z", token,
		map[string]any{"quantity": 3}, nil, 404)
	doJSON(t, http.MethodPost, ts.URL+"/cart/items/Z/increment", token, nil, nil, 404)

	// Negative and fractional quantities: rejected, cart untouched.
	doJSON(t, http.MethodPut, ts.URL+"/cart/items/A", token,
		map[string]any{"quantity": -2}, nil, 400)
	doJSON(t, http.MethodPut, ts.URL+"/cart/items/A", token,
		map[string]any{"quantity": 1.5}, nil, 400)

	var view cartView
	doJSON(t, http.MethodGet, ts.URL+"/cart/", token, nil, &view, 200)
	if len(view.Lines) != 0 || view.TotalCents != 0 {
		t.Fatalf("rejected operations mutated the cart: %+v", view)
	}
}

func TestCheckout(t *testing.T) {
	ts := newStorefrontTS(t, true)
	defer ts.Close()
	token := newSession(t, ts.URL)

	// Empty cart blocks checkout.
	doJSON(t, http.MethodPost, ts.URL+"/checkout", token,
		map[string]any{"company_name": "X", "company_tax_id": "Y"}, nil, 400)

	doJSON(t, http.MethodPost, ts.URL+"/cart/items/A/increment", token, nil, nil, 200)
	doJSON(t, http.MethodPut, ts.URL+"/cart/items/B", token,
		map[string]any{"quantity": 2}, nil, 200)

	// Missing company fields block checkout and keep the cart.
	doJSON(t, http.MethodPost, ts.URL+"/checkout", token,
		map[string]any{"company_name": "  ", "company_tax_id": "J-1"}, nil, 400)

	var view cartView
	doJSON(t, http.MethodGet, ts.URL+"/cart/", token, nil, &view, 200)
	if len(view.Lines) != 2 {
		t.Fatalf("blocked checkout emptied the cart: %+v", view)
	}

	var resp struct {
		Message     string `json:"message"`
		WhatsAppURL string `json:"whatsapp_url"`
		TotalCents  int64  `json:"total_cents"`
	}
	doJSON(t, http.MethodPost, ts.URL+"/checkout", token,
		map[string]any{"company_name": "Distribuidora C.A.", "company_tax_id": "J-12345678-9"}, &resp, 200)

	if resp.TotalCents != 2250 {
		t.Fatalf("total_cents=%d, want 2250", resp.TotalCents)
	}
	if !strings.Contains(resp.Message, "Cuaderno (x1) - $2.50") ||
		!strings.Contains(resp.Message, "Carro de Juguete (x2) - $20.00") ||
		!strings.Contains(resp.Message, "Total del Pedido: $22.50") ||
		!strings.Contains(resp.Message, "RIF: J-12345678-9") {
		t.Fatalf("message missing content:\n%s", resp.Message)
	}
	if !strings.HasPrefix(resp.WhatsAppURL, "https://wa.me/584244237456?text=") {
		t.Fatalf("whatsapp_url=%s", resp.WhatsAppURL)
	}

	// Successful hand-off clears the cart.
	doJSON(t, http.MethodGet, ts.URL+"/cart/", token, nil, &view, 200)
	if len(view.Lines) != 0 || view.TotalCents != 0 {
		t.Fatalf("cart not cleared after checkout: %+v", view)
	}
}

func TestCatalogNeverLoaded(t *testing.T) {
	ts := newStorefrontTS(t, false)
	defer ts.Close()
	token := newSession(t, ts.URL)

	doJSON(t, http.MethodGet, ts.URL+"/catalog/products", token, nil, nil, 503)
	doJSON(t, http.MethodGet, ts.URL+"/catalog/categories", token, nil, nil, 503)

	// The cart still answers, but nothing resolves.
	doJSON(t, http.MethodPost, ts.URL+"/cart/items/A/increment", token, nil, nil, 404)

	var view cartView
	doJSON(t, http.MethodGet, ts.URL+"/cart/", token, nil, &view, 200)
	if len(view.Lines) != 0 {
		t.Fatalf("cart mutated with unloaded catalog: %+v", view)
	}
}

func TestHealthAndReady(t *testing.T) {
	loaded := newStorefrontTS(t, true)
	defer loaded.Close()
	doJSON(t, http.MethodGet, loaded.URL+"/healthz", "", nil, nil, 200)
	doJSON(t, http.MethodGet, loaded.URL+"/readyz", "", nil, nil, 200)

	unloaded := newStorefrontTS(t, false)
	defer unloaded.Close()
	doJSON(t, http.MethodGet, unloaded.URL+"/healthz", "", nil, nil, 200)
	doJSON(t, http.MethodGet, unloaded.URL+"/readyz", "", nil, nil, 503)
}
