package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmartin/veracity/internal/model"
)

func TestOllamaProvider_Infer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream must be disabled")
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:    req.Model,
			Response: `{"label": "supports", "confidence": 0.88}`,
			Done:     true,
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(Config{BaseURL: srv.URL, Model: "llama3.1:8b"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	res, err := p.Infer(context.Background(), InferRequest{
		ClaimText:    "Inflation is at 3.2%",
		EvidenceText: "CPI rose 3.2% in the 12 months to July.",
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if res.Label != model.StanceSupports || res.Confidence != 0.88 {
		t.Errorf("got %+v", res)
	}
}

func TestOllamaProvider_InferRequiresModel(t *testing.T) {
	p, _ := NewOllamaProvider(Config{})
	if _, err := p.Infer(context.Background(), InferRequest{}); err == nil {
		t.Error("expected error without model name")
	}
}

func TestOllamaProvider_GenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ollamaError{Error: "model not loaded"})
	}))
	defer srv.Close()

	p, _ := NewOllamaProvider(Config{BaseURL: srv.URL, Model: "llama3.1:8b"})
	if _, err := p.Generate(context.Background(), GenerateRequest{Prompt: "hi"}); err == nil {
		t.Error("expected API error to propagate")
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p, _ := NewOllamaProvider(Config{BaseURL: srv.URL})
	if !p.IsAvailable(context.Background()) {
		t.Error("expected available")
	}
}
