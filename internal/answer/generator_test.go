package answer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/obudai/phonebook-rag/internal/config"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

var testDocs = []vectorstore.ScoredDocument{
	{
		ID:    "a",
		Score: 0.9,
		Payload: map[string]string{
			"DisplayName":     "Györök György",
			"Title":           "egyetemi docens",
			"Department":      "Informatikai Intézet",
			"TelephoneNumber": "123-4567",
			"UPN":             "gyorok.gyorgy@uni-obuda.hu",
		},
	},
	{
		ID:      "b",
		Score:   0.4,
		Payload: map[string]string{"DisplayName": "Nagy Éva"},
	},
}

func TestBuildContext(t *testing.T) {
	got := buildContext(testDocs)

	if !strings.HasPrefix(got, "[1] Név: Györök György\n") {
		t.Errorf("context should start with the first numbered entry:\n%s", got)
	}
	if !strings.Contains(got, "Telefonszám: 123-4567\n") {
		t.Errorf("context missing phone number:\n%s", got)
	}
	if !strings.Contains(got, "Email: gyorok.gyorgy@uni-obuda.hu\n") {
		t.Errorf("context missing email:\n%s", got)
	}
	if !strings.Contains(got, "[2] Név: Nagy Éva\n") {
		t.Errorf("context missing second entry:\n%s", got)
	}
	// Absent fields are omitted, not rendered empty.
	if strings.Contains(got, "Beosztás: \n") {
		t.Errorf("empty fields should be skipped:\n%s", got)
	}
}

func TestBuildPromptsLanguages(t *testing.T) {
	sysHU, userHU := buildPrompts("ki Györök György?", testDocs, "hu")
	if !strings.Contains(sysHU, "Óbudai Egyetem") {
		t.Error("hungarian system prompt expected")
	}
	if !strings.Contains(userHU, "A felhasználó kérdése: ki Györök György?") {
		t.Errorf("user prompt = %q", userHU)
	}

	sysEN, userEN := buildPrompts("who is György?", testDocs, "en")
	if !strings.Contains(sysEN, "Óbuda University") {
		t.Error("english system prompt expected")
	}
	if !strings.Contains(userEN, "User's question: who is György?") {
		t.Errorf("user prompt = %q", userEN)
	}
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	_, err := NewGenerator(&config.LLMConfig{Model: "gpt-4o-mini"})
	if !errors.Is(err, ErrGeneratorUnavailable) {
		t.Errorf("error = %v, want ErrGeneratorUnavailable", err)
	}
}

func TestGenerate(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  Györök György mellék: 123-4567.  "}},
			},
		})
	}))
	defer srv.Close()

	gen, err := NewGenerator(&config.LLMConfig{
		BaseURL:     srv.URL,
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   500,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := gen.Generate(context.Background(), "Györök György telefonszáma?", testDocs, "hu")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if got != "Györök György mellék: 123-4567." {
		t.Errorf("Generate() = %q", got)
	}

	if captured.Model != "gpt-4o-mini" || captured.Temperature != 0.3 || captured.MaxTokens != 500 {
		t.Errorf("request = %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	gen, err := NewGenerator(&config.LLMConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "m"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := gen.Generate(context.Background(), "q", nil, "hu"); err != nil {
		t.Fatalf("Generate() should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestGenerateBadRequestNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	gen, err := NewGenerator(&config.LLMConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "m"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := gen.Generate(context.Background(), "q", nil, "hu"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("client errors should not be retried, calls = %d", calls)
	}
}

func TestMessages(t *testing.T) {
	if !strings.Contains(NotReadyMessage("hu"), "adatbázis") {
		t.Error("hungarian not-ready message expected")
	}
	if !strings.Contains(NotReadyMessage("en"), "not loaded") {
		t.Error("english not-ready message expected")
	}
	if !strings.Contains(NoResultsMessage("hu"), "telefonkönyvben") {
		t.Error("hungarian no-results message expected")
	}
	if !strings.Contains(NoResultsMessage("en"), "phonebook") {
		t.Error("english no-results message expected")
	}
	// Unknown languages fall back to Hungarian.
	if NotReadyMessage("de") != NotReadyMessage("hu") {
		t.Error("unknown language should fall back to hu")
	}
}
