package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"revenai/internal/admintoken"
	"revenai/internal/app"
	"revenai/pkg/ai"
	"revenai/pkg/domain"
	"revenai/pkg/store"
)

const adminSecret = "test-admin-secret"

// newTestServer wires a server over the memory store and an upstream
// gateway stub that answers with the given status and reply.
func newTestServer(t *testing.T, mem *store.MemoryStore, upstreamStatus int, upstreamReply string) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if upstreamStatus != http.StatusOK {
			http.Error(w, `{"error":{"message":"upstream detail"}}`, upstreamStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": upstreamReply}},
			},
		})
	}))
	t.Cleanup(upstream.Close)

	appCore, err := app.New(app.Config{
		Store:     mem,
		Completer: ai.NewGatewayClient(upstream.URL, "test-key", "google/gemini-2.5-flash"),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	adminTokens, err := admintoken.NewVerifier(admintoken.Config{Secret: adminSecret})
	if err != nil {
		t.Fatalf("new admin verifier: %v", err)
	}
	srv, err := New(Config{App: appCore, AdminTokens: adminTokens})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postChat(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/reven/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post chat: %v", err)
	}
	return resp
}

func TestChatEndpointSuccess(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.SaveProduct(domain.Product{Name: "Premium Water", Price: 5, Stock: 120, Active: true})
	ts := newTestServer(t, mem, http.StatusOK, "We sell Premium Water.")

	resp := postChat(t, ts, `{"messages":[{"role":"user","content":"What water do you sell?"}]}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Reply != "We sell Premium Water." {
		t.Fatalf("reply = %q", out.Reply)
	}
}

func TestChatEndpointStatusMapping(t *testing.T) {
	cases := []struct {
		upstream int
		want     int
	}{
		{429, http.StatusTooManyRequests},
		{402, http.StatusPaymentRequired},
		{500, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("upstream_%d", tc.upstream), func(t *testing.T) {
			mem := store.NewMemoryStore()
			ts := newTestServer(t, mem, tc.upstream, "")

			resp := postChat(t, ts, `{"messages":[{"role":"user","content":"hi"}],"conversationId":"c-1"}`)
			defer resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.want)
			}
			var out struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Error == "" || strings.Contains(out.Error, "upstream detail") {
				t.Fatalf("client error text must be safe and non-empty: %q", out.Error)
			}
			msgs, _ := mem.ListConversationMessages("c-1")
			if len(msgs) != 0 {
				t.Fatalf("failed chat must not persist messages")
			}
		})
	}
}

func TestChatEndpointRejectsBadBody(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), http.StatusOK, "x")

	resp := postChat(t, ts, `{not json`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", resp.StatusCode)
	}

	resp = postChat(t, ts, `{"messages":[]}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty messages: status = %d, want 400", resp.StatusCode)
	}
}

func TestConversationLifecycleOverHTTP(t *testing.T) {
	mem := store.NewMemoryStore()
	ts := newTestServer(t, mem, http.StatusOK, "the answer")

	// Create.
	resp, err := http.Post(ts.URL+"/api/conversations", "application/json", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var conv domain.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	if conv.Title != store.DefaultConversationTitle {
		t.Fatalf("new conversation title = %q", conv.Title)
	}

	// Chat against it.
	body := fmt.Sprintf(`{"messages":[{"role":"user","content":"hello there"}],"conversationId":%q}`, conv.ID)
	chatResp := postChat(t, ts, body)
	chatResp.Body.Close()
	if chatResp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d", chatResp.StatusCode)
	}

	// History holds the exchange in order.
	histResp, err := http.Get(ts.URL + "/api/conversations/" + conv.ID + "/messages")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var msgs []domain.Message
	if err := json.NewDecoder(histResp.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	histResp.Body.Close()
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("history = %+v, want [user, assistant]", msgs)
	}

	// Recent list shows the excerpt title.
	listResp, err := http.Get(ts.URL + "/api/conversations?limit=10")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var items []domain.Conversation
	if err := json.NewDecoder(listResp.Body).Decode(&items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	listResp.Body.Close()
	if len(items) != 1 || items[0].Title != "hello there" {
		t.Fatalf("list = %+v, want one retitled conversation", items)
	}

	// Delete cascades; history afterwards is empty, not an error.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/conversations/"+conv.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", delResp.StatusCode)
	}
	histResp, err = http.Get(ts.URL + "/api/conversations/" + conv.ID + "/messages")
	if err != nil {
		t.Fatalf("history after delete: %v", err)
	}
	msgs = nil
	if err := json.NewDecoder(histResp.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode history after delete: %v", err)
	}
	histResp.Body.Close()
	if histResp.StatusCode != http.StatusOK || len(msgs) != 0 {
		t.Fatalf("history after delete: status=%d len=%d, want 200 and empty", histResp.StatusCode, len(msgs))
	}
}

func TestConfigEndpointAdminGuard(t *testing.T) {
	mem := store.NewMemoryStore()
	ts := newTestServer(t, mem, http.StatusOK, "x")

	// Public read materializes the default.
	resp, err := http.Get(ts.URL + "/api/reven/config")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	var cfg domain.AssistantConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	resp.Body.Close()
	if cfg.GreetingMessage == "" {
		t.Fatalf("default config must carry a greeting")
	}

	// Write without a token is rejected.
	update := []byte(`{"greetingMessage":"Karibu!","tone":"friendly","personality":"guide"}`)
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/reven/config", bytes.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put config: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated write: status = %d, want 401", resp.StatusCode)
	}

	// Write with a signed admin token succeeds.
	token, err := admintoken.Sign(adminSecret, "admin-1", time.Minute)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/reven/config", bytes.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authorized put: %v", err)
	}
	var updated domain.AssistantConfig
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authorized write: status = %d, want 200", resp.StatusCode)
	}
	if updated.GreetingMessage != "Karibu!" || updated.Tone != domain.ToneFriendly {
		t.Fatalf("update not applied: %+v", updated)
	}

	// Invalid enum values are rejected.
	bad := []byte(`{"tone":"sarcastic"}`)
	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/reven/config", bytes.NewReader(bad))
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("bad enum put: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid tone: status = %d, want 400", resp.StatusCode)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	mem := store.NewMemoryStore()
	mem.SaveProduct(domain.Product{ID: "p1", Name: "Premium Water", Active: true})
	mem.SaveProduct(domain.Product{ID: "p2", Name: "Hidden", Active: false})
	mem.SaveBranch(domain.Branch{ID: "b1", Name: "HQ", City: "Nairobi"})
	ts := newTestServer(t, mem, http.StatusOK, "x")

	resp, err := http.Get(ts.URL + "/api/catalog/products")
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	var products []domain.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	resp.Body.Close()
	if len(products) != 1 || products[0].Name != "Premium Water" {
		t.Fatalf("products = %+v, want only active items", products)
	}

	resp, err = http.Get(ts.URL + "/api/catalog/services")
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	var services []domain.Service
	if err := json.NewDecoder(resp.Body).Decode(&services); err != nil {
		t.Fatalf("decode services: %v", err)
	}
	resp.Body.Close()
	if services == nil || len(services) != 0 {
		t.Fatalf("empty services must encode as [], got %v", services)
	}

	resp, err = http.Get(ts.URL + "/api/catalog/branches")
	if err != nil {
		t.Fatalf("branches: %v", err)
	}
	var branches []domain.Branch
	if err := json.NewDecoder(resp.Body).Decode(&branches); err != nil {
		t.Fatalf("decode branches: %v", err)
	}
	resp.Body.Close()
	if len(branches) != 1 || branches[0].City != "Nairobi" {
		t.Fatalf("branches = %+v", branches)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore(), http.StatusOK, "x")
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
}
