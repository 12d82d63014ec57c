// Package embedding implements store.Embedder against the OpenAI
// embeddings API.
package embedding

import (
	"context"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/turtacn/graphctx/pkg/errors"
)

// DefaultModel is used when Config.Model is left empty.
const DefaultModel = oai.EmbeddingModelTextEmbedding3Small

// Config configures the OpenAI-backed embedder.
type Config struct {
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model"`
	BaseURL      string        `mapstructure:"base_url"`
	Organization string        `mapstructure:"organization"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Embedder implements store.Embedder using the OpenAI API.
type Embedder struct {
	client oai.Client
	model  string
}

// New constructs an Embedder. An empty Model falls back to DefaultModel.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.CodeInvalidRequest, "openai embedder: api key must not be empty")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(cfg.Organization))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}

	client := oai.NewClient(reqOpts...)
	return &Embedder{client: client, model: model}, nil
}

// Embed implements store.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: e.model,
		Input: oai.EmbeddingNewParamsInputUnion{OfString: param.NewOpt(text)},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeEmbedderUnavailable, "openai embeddings call failed")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New(errors.CodeEmbedderUnavailable, "openai embeddings: empty response")
	}
	return float64ToFloat32(resp.Data[0].Embedding), nil
}

// ModelID returns the configured embedding model name.
func (e *Embedder) ModelID() string { return e.model }

// Dimensions returns the embedding width produced by the configured model.
func (e *Embedder) Dimensions() int { return modelDimensions(e.model) }

func modelDimensions(model string) int {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "text-embedding-3-large"):
		return 3072
	case strings.Contains(lower, "text-embedding-3-small"):
		return 1536
	case strings.Contains(lower, "text-embedding-ada-002"):
		return 1536
	default:
		return 1536
	}
}

func float64ToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
