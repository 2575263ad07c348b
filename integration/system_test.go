//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

func TestSystem_E2E(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var sess struct {
		Token string `json:"token"`
	}
	doJSON(t, http.MethodPost, baseURL+"/sessions", "", nil, &sess, 201)
	if sess.Token == "" {
		t.Fatalf("empty session token")
	}

	var products []map[string]any
	doJSON(t, http.MethodGet, baseURL+"/catalog/products", sess.Token, nil, &products, 200)
	if len(products) == 0 {
		t.Fatalf("expected non-empty catalog")
	}

	pid, _ := products[0]["id"].(string)
	if pid == "" {
		t.Fatalf("product id missing in response: %#v", products[0])
	}

	var view struct {
		Lines      []map[string]any `json:"lines"`
		TotalCents int64            `json:"total_cents"`
	}
	doJSON(t, http.MethodPost, baseURL+"/cart/items/"+pid+"/increment", sess.Token, nil, &view, 200)
	if len(view.Lines) != 1 || view.TotalCents <= 0 {
		t.Fatalf("unexpected cart after increment: %+v", view)
	}

	var handoff struct {
		Message     string `json:"message"`
		WhatsAppURL string `json:"whatsapp_url"`
	}
	doJSON(t, http.MethodPost, baseURL+"/checkout", sess.Token, map[string]any{
		"company_name":   "Distribuidora E2E C.A.",
		"company_tax_id": "J-00000000-0",
	}, &handoff, 200)

	if !strings.Contains(handoff.WhatsAppURL, "wa.me") {
		t.Fatalf("unexpected hand-off link: %s", handoff.WhatsAppURL)
	}

	doJSON(t, http.MethodGet, baseURL+"/cart/", sess.Token, nil, &view, 200)
	if len(view.Lines) != 0 {
		t.Fatalf("cart not cleared after checkout: %+v", view)
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url, token string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
