package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"traceloom/internal/services/llm"
)

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":` + mustJSON(content) + `},"finish_reason":"stop"}]}`
}

func mustJSON(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}

func newTestClient(serverURL string, opts ...llm.Option) *llm.Client {
	cfg := llm.Config{
		APIKey:    "test-key",
		BaseURL:   serverURL,
		Model:     "vision-model",
		TextModel: "text-model",
		Referer:   "https://example.test",
		Title:     "traceloom",
	}
	base := []llm.Option{llm.WithSleeper(func(time.Duration) {})}
	return llm.NewClient(cfg, append(base, opts...)...)
}

func TestCompleteSendsMultimodalPayload(t *testing.T) {
	imagePath := writeImage(t, "scan.jpg")

	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type     string `json:"type"`
				Text     string `json:"text"`
				ImageURL *struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"content"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "traceloom" {
			t.Errorf("unexpected title header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(completionBody("The handwriting reads: hello")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	content, err := client.Complete(context.Background(), "Transcribe this.", []string{imagePath}, llm.WithMaxTokens(2048))
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if content != "The handwriting reads: hello" {
		t.Fatalf("unexpected content: %q", content)
	}

	if captured.Model != "vision-model" {
		t.Fatalf("unexpected model: %q", captured.Model)
	}
	if captured.MaxTokens != 2048 {
		t.Fatalf("unexpected max_tokens: %d", captured.MaxTokens)
	}
	if len(captured.Messages) != 1 || len(captured.Messages[0].Content) != 2 {
		t.Fatalf("unexpected message shape: %+v", captured.Messages)
	}
	parts := captured.Messages[0].Content
	if parts[0].Type != "text" || parts[0].Text != "Transcribe this." {
		t.Fatalf("unexpected text part: %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil {
		t.Fatalf("unexpected image part: %+v", parts[1])
	}
	if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/jpeg;base64,") {
		t.Fatalf("expected jpeg data uri, got %q", parts[1].ImageURL.URL[:40])
	}
}

func TestCompleteTextUsesTextModel(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(completionBody("refined")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.CompleteText(context.Background(), "Polish this reasoning."); err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if captured.Model != "text-model" {
		t.Fatalf("expected text model, got %q", captured.Model)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Content != "Polish this reasoning." {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody("ok")))
	}))
	defer server.Close()

	client := newTestClient(server.URL, llm.WithRetryMaxAttempts(3), llm.WithRetryBackoff(time.Millisecond, time.Millisecond))
	content, err := client.CompleteText(context.Background(), "hi")
	if err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if content != "ok" || calls != 3 {
		t.Fatalf("expected success on third call, got %q after %d calls", content, calls)
	}
}

func TestCompleteHonorsRetryAfter(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(completionBody("ok")))
	}))
	defer server.Close()

	var slept []time.Duration
	client := newTestClient(server.URL,
		llm.WithRetryMaxAttempts(2),
		llm.WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	if _, err := client.CompleteText(context.Background(), "hi"); err != nil {
		t.Fatalf("CompleteText failed: %v", err)
	}
	if len(slept) != 1 || slept[0] != 7*time.Second {
		t.Fatalf("expected one 7s sleep, got %v", slept)
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad prompt"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, llm.WithRetryMaxAttempts(5))
	if _, err := client.CompleteText(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls)
	}
}

func TestCompleteEmptyContentIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"","refusal":"no"},"finish_reason":"content_filter"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, llm.WithRetryMaxAttempts(1))
	if _, err := client.CompleteText(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := llm.NewClient(llm.Config{Model: "m"})
	if _, err := client.Complete(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestCompleteMissingImageFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent when image encoding fails")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Complete(context.Background(), "hi", []string{"/does/not/exist.jpg"}); err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestEncodeImageDataURIMIMETypes(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"a.png":  "data:image/png;base64,",
		"b.jpeg": "data:image/jpeg;base64,",
		"c.tiff": "data:image/jpeg;base64,",
	}
	for name, prefix := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		uri, err := llm.EncodeImageDataURI(path)
		if err != nil {
			t.Fatalf("EncodeImageDataURI(%s) failed: %v", name, err)
		}
		if !strings.HasPrefix(uri, prefix) {
			t.Fatalf("expected %q prefix for %s, got %q", prefix, name, uri)
		}
	}
}
