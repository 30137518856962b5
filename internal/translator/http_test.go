package translator_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/valpere/knyhotran/internal/translator"
)

func openAIServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Success(t *testing.T) {
	srv := openAIServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"Here is the translation:\nПереклад."}}]}`)

	p := translator.NewOpenAIProvider("test-key", srv.URL, "test-model")
	got, err := p.Translate(context.Background(), "system", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The echo prefix is stripped by postprocessing.
	if got != "Переклад." {
		t.Errorf("got %q", got)
	}
}

func TestOpenAI_SendsMessages(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Error(err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok ok ok"}}]}`))
	}))
	defer srv.Close()

	p := translator.NewOpenAIProvider("test-key", srv.URL, "test-model")
	if _, err := p.Translate(context.Background(), "be literal", "переклади це"); err != nil {
		t.Fatal(err)
	}
	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 ||
		captured.Messages[0].Role != "system" || captured.Messages[0].Content != "be literal" ||
		captured.Messages[1].Role != "user" || captured.Messages[1].Content != "переклади це" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestOpenAI_RateLimitIsTransient(t *testing.T) {
	srv := openAIServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"rate limit reached","code":"rate_limit_exceeded"}}`)

	p := translator.NewOpenAIProvider("test-key", srv.URL, "")
	_, err := p.Translate(context.Background(), "s", "t")
	var transient *translator.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
}

func TestOpenAI_ContextLengthIsSizeError(t *testing.T) {
	srv := openAIServer(t, http.StatusBadRequest,
		`{"error":{"message":"this model's maximum context length is exceeded","code":"context_length_exceeded"}}`)

	p := translator.NewOpenAIProvider("test-key", srv.URL, "")
	_, err := p.Translate(context.Background(), "s", "t")
	var size *translator.SizeError
	if !errors.As(err, &size) {
		t.Fatalf("expected SizeError, got %v", err)
	}
}

func TestOpenAI_PayloadTooLargeIsSizeError(t *testing.T) {
	srv := openAIServer(t, http.StatusRequestEntityTooLarge, `too large`)

	p := translator.NewOpenAIProvider("test-key", srv.URL, "")
	_, err := p.Translate(context.Background(), "s", "t")
	var size *translator.SizeError
	if !errors.As(err, &size) {
		t.Fatalf("expected SizeError, got %v", err)
	}
}

func TestOpenAI_GatewayTimeoutIsSizeError(t *testing.T) {
	srv := openAIServer(t, http.StatusGatewayTimeout, `upstream timeout`)

	p := translator.NewOpenAIProvider("test-key", srv.URL, "")
	_, err := p.Translate(context.Background(), "s", "t")
	var size *translator.SizeError
	if !errors.As(err, &size) {
		t.Fatalf("expected SizeError for gateway timeout, got %v", err)
	}
}

func TestOpenAI_ServerErrorIsTransient(t *testing.T) {
	srv := openAIServer(t, http.StatusInternalServerError, `oops`)

	p := translator.NewOpenAIProvider("test-key", srv.URL, "")
	_, err := p.Translate(context.Background(), "s", "t")
	var transient *translator.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
}

func TestOpenAI_ConnectionRefusedIsTransient(t *testing.T) {
	p := translator.NewOpenAIProvider("test-key", "http://127.0.0.1:1", "")
	_, err := p.Translate(context.Background(), "s", "t")
	var transient *translator.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
}

func TestGemini_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("unexpected key %q", got)
		}
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		// System prompt is folded into the single user part.
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "be literal\n\nтекст" {
			t.Errorf("request contents = %+v", req.Contents)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Переклад."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	p := translator.NewGeminiProvider("test-key", srv.URL, "test-model")
	got, err := p.Translate(context.Background(), "be literal", "текст")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Переклад." {
		t.Errorf("got %q", got)
	}
}

func TestGemini_MaxTokensIsSizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"half a transl"}]},"finishReason":"MAX_TOKENS"}]}`))
	}))
	defer srv.Close()

	p := translator.NewGeminiProvider("test-key", srv.URL, "m")
	_, err := p.Translate(context.Background(), "s", "t")
	var size *translator.SizeError
	if !errors.As(err, &size) {
		t.Fatalf("expected SizeError for truncated output, got %v", err)
	}
}

func TestGemini_QuotaIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	p := translator.NewGeminiProvider("test-key", srv.URL, "m")
	_, err := p.Translate(context.Background(), "s", "t")
	var transient *translator.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
}

func TestGemini_TokenLimitMessageIsSizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"input exceeds the token limit for this model","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	p := translator.NewGeminiProvider("test-key", srv.URL, "m")
	_, err := p.Translate(context.Background(), "s", "t")
	var size *translator.SizeError
	if !errors.As(err, &size) {
		t.Fatalf("expected SizeError from the error message, got %v", err)
	}
}

func TestOllama_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			System string `json:"system"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req.Model != "test-model" || req.System != "s" || req.Prompt != "текст" || req.Stream {
			t.Errorf("request = %+v", req)
		}
		w.Write([]byte(`{"response":"Переклад."}`))
	}))
	defer srv.Close()

	p := translator.NewOllamaProvider(srv.URL, "test-model")
	got, err := p.Translate(context.Background(), "s", "текст")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Переклад." {
		t.Errorf("got %q", got)
	}
}

func TestOllama_Available(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	if err := translator.NewOllamaProvider(srv.URL, "m").Available(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := translator.NewOllamaProvider("http://127.0.0.1:1", "m").Available(context.Background()); err == nil {
		t.Error("expected error for unreachable instance")
	}
}
