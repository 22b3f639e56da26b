//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:5000")

type productDTO struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
}

func TestSystem_E2E_WithDB(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var before []productDTO
	doJSON(t, http.MethodGet, baseURL+"/api/products", nil, &before, http.StatusOK)

	name := fmt.Sprintf("e2e-%d-%d", time.Now().Unix(), rand.Intn(100000))
	price := 12.5

	var created productDTO
	doJSON(t, http.MethodPost, baseURL+"/api/products", map[string]any{
		"name":        name,
		"price":       price,
		"description": "created by e2e",
	}, &created, http.StatusCreated)
	if created.ID == 0 {
		t.Fatalf("id not assigned: %#v", created)
	}
	if created.Name != name || created.Price == nil || *created.Price != price {
		t.Fatalf("unexpected product: %#v", created)
	}

	var updated productDTO
	doJSON(t, http.MethodPost, baseURL+"/api/products", map[string]any{
		"id":   created.ID,
		"name": name + "-v2",
	}, &updated, http.StatusCreated)
	if updated.ID != created.ID {
		t.Fatalf("upsert changed id: %d -> %d", created.ID, updated.ID)
	}

	doJSON(t, http.MethodPost, baseURL+"/api/products", json.RawMessage(`{"name":`), nil, http.StatusBadRequest)

	var after []productDTO
	doJSON(t, http.MethodGet, baseURL+"/api/products", nil, &after, http.StatusOK)
	if len(after) != len(before)+1 {
		t.Fatalf("expected %d products, got %d", len(before)+1, len(after))
	}
	assertHasProduct(t, after, created.ID, name+"-v2")

	if os.Getenv("E2E_RESTART_PRODUCT") == "1" {
		restartContainer(t, ctx, "product")
		waitReady(t, ctx, baseURL+"/readyz")

		var restarted []productDTO
		doJSON(t, http.MethodGet, baseURL+"/api/products", nil, &restarted, http.StatusOK)
		assertHasProduct(t, restarted, created.ID, name+"-v2")
	}
}

func assertHasProduct(t *testing.T, list []productDTO, id int64, name string) {
	t.Helper()

	for _, p := range list {
		if p.ID == id {
			if p.Name != name {
				t.Fatalf("product %d name=%q want=%q", id, p.Name, name)
			}
			return
		}
	}
	t.Fatalf("product %d not listed", id)
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == http.StatusOK {
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

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
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
