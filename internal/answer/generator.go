package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/obudai/phonebook-rag/internal/config"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

// ErrGeneratorUnavailable is returned when answer generation cannot run at
// all, typically because no API key is configured. Unlike a degraded
// search, this is a hard failure: the service has results but cannot
// phrase an answer.
var ErrGeneratorUnavailable = errors.New("answer generator unavailable")

// Generator turns retrieved roster entries into a natural language answer
// via an OpenAI-compatible chat completions API.
type Generator struct {
	cfg    *config.LLMConfig
	client *http.Client
}

func NewGenerator(cfg *config.LLMConfig) (*Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: llm api_key is not set", ErrGeneratorUnavailable)
	}
	return &Generator{
		cfg: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate produces an answer for the query grounded in the retrieved
// documents. Language is "hu" or "en".
func (g *Generator) Generate(ctx context.Context, query string, docs []vectorstore.ScoredDocument, language string) (string, error) {
	systemPrompt, userPrompt := buildPrompts(query, docs, language)

	reqBody, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var parsed chatResponse
	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/chat/completions"
		httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return fmt.Errorf("create chat request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

		resp, err := g.client.Do(httpReq)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("send chat request: %w", err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read chat response: %w", err))
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("chat API status %d: %s",
				resp.StatusCode, string(body)))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("chat API status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("parse chat response: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// contextLabels maps payload fields to the Hungarian labels used in the
// prompt context block, in presentation order.
var contextLabels = []struct {
	field string
	label string
}{
	{"DisplayName", "Név"},
	{"Title", "Beosztás"},
	{"Department", "Tanszék"},
	{"Company", "Kar"},
	{"TelephoneNumber", "Telefonszám"},
	{"UPN", "Email"},
}

func buildContext(docs []vectorstore.ScoredDocument) string {
	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		var b strings.Builder
		fmt.Fprintf(&b, "[%d] ", i+1)
		for _, cl := range contextLabels {
			if val := doc.Payload[cl.field]; val != "" {
				fmt.Fprintf(&b, "%s: %s\n", cl.label, val)
			}
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

const systemPromptHU = `Te az Óbudai Egyetem segítőkész telefonkönyv asszisztense vagy.
A feladatod, hogy segíts a felhasználóknak megtalálni a keresett személyek elérhetőségeit.

FONTOS SZABÁLYOK:
1. Szigorúan csak a megadott kontextusból válaszolj. Ne találj ki információkat!
2. Ha a keresett információ nincs a kontextusban, mondd el, hogy nem található.
3. A válaszodban mindig tüntesd fel a pontos telefonszámot és email címet, ha elérhető.
4. Legyél barátságos és segítőkész.
5. Ha több találat van, sorold fel őket egyértelműen.`

const systemPromptEN = `You are a helpful phonebook assistant for Óbuda University.
Your task is to help users find contact information for the people they are looking for.

IMPORTANT RULES:
1. Answer strictly only from the provided context. Do not make up information!
2. If the requested information is not in the context, tell the user it was not found.
3. Always include the exact phone number and email address in your response if available.
4. Be friendly and helpful.
5. If there are multiple matches, list them clearly.`

func buildPrompts(query string, docs []vectorstore.ScoredDocument, language string) (string, string) {
	contextText := buildContext(docs)

	if language == "en" {
		userPrompt := fmt.Sprintf(`User's question: %s

Available information from the phonebook:
%s

Please answer the user's question based on the above information.`, query, contextText)
		return systemPromptEN, userPrompt
	}

	userPrompt := fmt.Sprintf(`A felhasználó kérdése: %s

Elérhető információk a telefonkönyvből:
%s

Kérlek, válaszolj a felhasználó kérdésére a fenti információk alapján.`, query, contextText)
	return systemPromptHU, userPrompt
}
