package cart

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront/internal/session"
)

func newTestHandler() http.Handler {
	h := NewHandler(
		NewService(session.NewMemoryStore(), newFakeCatalog()),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", h.HandleGet)
	mux.HandleFunc("POST /cart/add", h.HandleAdd)
	mux.HandleFunc("DELETE /cart/remove", h.HandleRemove)
	mux.HandleFunc("POST /cart/clear", h.HandleClear)
	return session.Middleware("sessionid", mux)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(session.HeaderName, "session-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	t.Run("add then get", func(t *testing.T) {
		h := newTestHandler()

		rec := do(t, h, http.MethodPost, "/cart/add", `{"product_id":1,"size_id":1,"quantity":2}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = do(t, h, http.MethodGet, "/cart", "")
		var resp struct {
			Items []struct {
				Name       string `json:"name"`
				SizeName   string `json:"size_name"`
				Quantity   int    `json:"quantity"`
				TotalPrice string `json:"total_price"`
			} `json:"items"`
			TotalPrice string `json:"total_price"`
			Count      int    `json:"count"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if resp.Count != 2 || len(resp.Items) != 1 {
			t.Fatalf("unexpected cart: %+v", resp)
		}
		if resp.Items[0].SizeName != "S" || resp.TotalPrice != "500" {
			t.Errorf("unexpected cart: %+v", resp)
		}
	})

	t.Run("validation error", func(t *testing.T) {
		rec := do(t, newTestHandler(), http.MethodPost, "/cart/add", `{"product_id":1,"quantity":0}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"quantity"`) {
			t.Errorf("expected quantity field error, got %s", rec.Body.String())
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		rec := do(t, newTestHandler(), http.MethodPost, "/cart/add", `{"product_id":42}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("remove and clear", func(t *testing.T) {
		h := newTestHandler()
		_ = do(t, h, http.MethodPost, "/cart/add", `{"product_id":1,"quantity":1}`)

		rec := do(t, h, http.MethodDelete, "/cart/remove", `{"product_id":1}`)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":0`) {
			t.Errorf("unexpected remove response %d: %s", rec.Code, rec.Body.String())
		}

		rec = do(t, h, http.MethodPost, "/cart/clear", "")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}
