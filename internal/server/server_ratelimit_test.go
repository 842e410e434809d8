package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"revenai/internal/admintoken"
	"revenai/internal/app"
	"revenai/pkg/ai"
	"revenai/pkg/store"
)

func TestChatRateLimitOverHTTP(t *testing.T) {
	mr := miniredis.RunT(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer upstream.Close()

	appCore, err := app.New(app.Config{
		Store:     store.NewMemoryStore(),
		Completer: ai.NewGatewayClient(upstream.URL, "test-key", "google/gemini-2.5-flash"),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	adminTokens, err := admintoken.NewVerifier(admintoken.Config{Secret: "s"})
	if err != nil {
		t.Fatalf("new admin verifier: %v", err)
	}
	srv, err := New(Config{
		App:                    appCore,
		AdminTokens:            adminTokens,
		RedisAddr:              mr.Addr(),
		ChatRateLimitPerMinute: 2,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	body := `{"messages":[{"role":"user","content":"hi"}]}`
	for i := 0; i < 2; i++ {
		resp, err := http.Post(ts.URL+"/api/reven/chat", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, resp.StatusCode)
		}
	}

	resp, err := http.Post(ts.URL+"/api/reven/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("limited request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("limited request: status = %d, want 429", resp.StatusCode)
	}
	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.Error, "Rate limit exceeded") {
		t.Fatalf("error text = %q", out.Error)
	}

	// Other endpoints are not subject to the chat limit.
	healthResp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	healthResp.Body.Close()
	if healthResp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", healthResp.StatusCode)
	}
}
