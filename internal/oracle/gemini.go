// Package oracle wraps the external natural-language model behind a small
// text-in/text-out interface. The response is untrusted structured input;
// parsing and validation live in the classify package.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"google.golang.org/genai"
)

// Generator is the oracle capability consumed by the classifier. When
// expectJSON is set the implementation asks for structured output if the
// configured model family supports it; otherwise it falls back to a strict
// plain-prompt contract.
type Generator interface {
	Generate(ctx context.Context, prompt string, expectJSON bool) (string, error)
}

// Gemma-family models reject the JSON response MIME type, so they always get
// the strict-prompt contract instead.
var gemmaModelRe = regexp.MustCompile(`(?i)^gemma-3`)

const strictJSONInstruction = "\n\nReturn ONLY valid JSON. Do not include explanations or markdown."

type Config struct {
	APIKey string
	Model  string
	// StrictOnly forces the plain-prompt contract even for models that
	// support structured output.
	StrictOnly bool
}

// Gemini is a Generator backed by the Gemini API. Construct once at startup
// and share across requests; the client is safe for concurrent use.
type Gemini struct {
	client     *genai.Client
	model      string
	strictOnly bool
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client:     client,
		model:      model,
		strictOnly: cfg.StrictOnly || gemmaModelRe.MatchString(model),
	}, nil
}

// Generate sends one prompt and returns the raw response text.
func (g *Gemini) Generate(ctx context.Context, prompt string, expectJSON bool) (string, error) {
	var config *genai.GenerateContentConfig

	if expectJSON {
		if g.strictOnly {
			prompt += strictJSONInstruction
		} else {
			config = &genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
			}
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := result.Text()
	slog.DebugContext(ctx, "Oracle response received",
		"model", g.model,
		"expect_json", expectJSON,
		"response_length", len(text))

	return text, nil
}

func (g *Gemini) Model() string {
	return g.model
}
