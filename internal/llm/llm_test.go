package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"key": "value", "num": 42}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
	if result["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", result["num"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	if result := ParseJSONResponse("not json at all"); result != nil {
		t.Error("expected nil for invalid JSON")
	}
}

func TestParseJSONResponseEmpty(t *testing.T) {
	if result := ParseJSONResponse("  \n "); result != nil {
		t.Error("expected nil for empty string")
	}
}

func TestStringList(t *testing.T) {
	m := ParseJSONResponse(`{"noun_chunks": ["Theorie", 3, "Studie Y"], "other": "x"}`)
	got := StringList(m, "noun_chunks")
	if len(got) != 2 || got[0] != "Theorie" || got[1] != "Studie Y" {
		t.Errorf("unexpected list %v", got)
	}
	if StringList(m, "other") != nil {
		t.Error("expected nil for non-array value")
	}
	if StringList(m, "missing") != nil {
		t.Error("expected nil for missing key")
	}
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if body["model"] != "llama3" {
			t.Errorf("expected model llama3, got %v", body["model"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": `{"noun_chunks": []}`},
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider("llama3", srv.URL+"/")
	out, err := p.Generate(context.Background(), "prompt", 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"noun_chunks": []}` {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOllamaGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOllamaProvider("llama3", srv.URL)
	if _, err := p.Generate(context.Background(), "prompt", 64); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestOllamaIsConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{{"name": "llama3:8b"}},
		})
	}))
	defer srv.Close()

	if !NewOllamaProvider("llama3:latest", srv.URL).IsConfigured() {
		t.Error("expected llama3 to be reported as available")
	}
	if NewOllamaProvider("mistral", srv.URL).IsConfigured() {
		t.Error("expected mistral to be reported as unavailable")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": " {\"noun_chunks\": [\"Theorie\"]} "}}},
		})
	}))
	defer srv.Close()

	p := newOpenAIProvider("", "test-key", srv.URL)
	out, err := p.Generate(context.Background(), "prompt", 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"noun_chunks": ["Theorie"]}` {
		t.Errorf("unexpected output %q", out)
	}
}

func TestOpenAIWithoutKey(t *testing.T) {
	p := newOpenAIProvider("gpt-4o-mini", "", "")
	if p.IsConfigured() {
		t.Error("expected unconfigured provider without key")
	}
	if _, err := p.Generate(context.Background(), "prompt", 10); err == nil {
		t.Error("expected error without key")
	}
}

func TestCreateProviderNoFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	t.Setenv("DISSNOVELTY_TEST_KEY", "sk-test")

	if p := CreateProvider("ollama", "llama3.1:8b", server.URL, "", "DISSNOVELTY_TEST_KEY", false); p != nil {
		t.Fatalf("expected nil provider without fallback, got %T", p)
	}

	p := CreateProvider("ollama", "llama3.1:8b", server.URL, "", "DISSNOVELTY_TEST_KEY", true)
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Fatalf("expected OpenAI fallback, got %T", p)
	}
}
