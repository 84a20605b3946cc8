package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaGenerator produces prose through a local Ollama server.
type OllamaGenerator struct {
	client *api.Client
	model  string
}

// NewOllamaGenerator creates an Ollama-backed generator. If host is empty the
// client is built from the environment (OLLAMA_HOST, default localhost:11434).
func NewOllamaGenerator(host, model string) (*OllamaGenerator, error) {
	if model == "" {
		model = "mistral"
	}

	var client *api.Client
	if host == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client from environment: %w", err)
		}
		client = c
	} else {
		u, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host URL: %w", err)
		}
		client = api.NewClient(u, http.DefaultClient)
	}

	return &OllamaGenerator{client: client, model: model}, nil
}

// Name returns the provider name.
func (g *OllamaGenerator) Name() string { return "ollama" }

// Generate asks the model for a short French phrasing of the scenario facts.
// The prompt forbids links and facts so the guard has nothing to strip.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt PromptContext) (string, error) {
	system := "Tu es Sahtein, un assistant culinaire libanais chaleureux. " +
		"Réponds en une ou deux phrases courtes, en français, sans lien, " +
		"sans liste d'ingrédients et sans étapes de préparation."
	if prompt.Language == "non_fr" {
		system = "You are Sahtein, a warm Lebanese cooking assistant. " +
			"Answer in one or two short sentences, without links, ingredient lists, or steps."
	}

	user := fmt.Sprintf("Scénario: %s. Question: %s.", prompt.ScenarioName, prompt.Query)
	if prompt.DishName != "" {
		user += fmt.Sprintf(" Plat: %s.", prompt.DishName)
	}

	stream := false
	req := &api.ChatRequest{
		Model: g.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": 0.3,
			"num_predict": 120,
		},
	}

	var sb strings.Builder
	err := g.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}
