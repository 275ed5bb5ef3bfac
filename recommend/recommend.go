// Package recommend asks a language model to rank a patient's short-listed
// plans and explain the ranking.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"planrec/model"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrNoProvider   = errors.New("model provider not configured")
	ErrNoPlans      = errors.New("no plans to rank")
)

// Provider is the backend serving a model.
type Provider string

const (
	OpenAI Provider = "openai"
	Ollama Provider = "ollama"
)

var openAIPrefixes = []string{"gpt-", "o1", "o3", "o4", "chatgpt-"}

// Route picks the provider for a model name. OpenAI model families go to
// OpenAI; any other name is served by Ollama.
func Route(modelName string) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" || strings.ContainsAny(name, " \t\n/") {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, modelName)
	}
	for _, p := range openAIPrefixes {
		if strings.HasPrefix(name, p) {
			return OpenAI, nil
		}
	}
	return Ollama, nil
}

// supportsSystemRole is false for the o1 family, which also rejects JSON mode.
func supportsSystemRole(modelName string) bool {
	return !strings.HasPrefix(strings.ToLower(modelName), "o1")
}

// Config configures the providers.
type Config struct {
	OpenAIKey     string
	OpenAIBaseURL string
	OllamaURL     string
	TopN          int
	MaxTokens     int
}

// ModelFactory builds a client for one model.
type ModelFactory func(provider Provider, modelName string) (llms.Model, error)

// Recommendation is one ranked plan.
type Recommendation struct {
	Rank              int    `json:"rank"`
	PlanID            string `json:"PlanId"`
	PlanMarketingName string `json:"PlanMarketingName"`
	IssuerName        string `json:"IssuerName"`
	MetalLevel        string `json:"MetalLevel"`
	Deductible        string `json:"Deductible"`
	MaxOutOfPocket    string `json:"MaxOutOfPocket"`
	TotalScore        int    `json:"TotalScore"`
	ScoreExplanation  string `json:"ScoreExplanation"`
	Justification     string `json:"Justification"`
}

// Response is the model's answer. When the output cannot be parsed,
// RawOutput holds it verbatim and Error says why.
type Response struct {
	Model            string           `json:"model"`
	Provider         Provider         `json:"provider"`
	RecommendedPlans []Recommendation `json:"recommended_plans,omitempty"`
	Summary          string           `json:"summary,omitempty"`
	RawOutput        string           `json:"raw_output,omitempty"`
	Error            string           `json:"error,omitempty"`
}

type Recommender struct {
	cfg      Config
	newModel ModelFactory
	logger   *slog.Logger
}

// New returns a Recommender building real provider clients.
func New(cfg Config, logger *slog.Logger) *Recommender {
	r := &Recommender{cfg: cfg, logger: logger}
	r.newModel = r.defaultModel
	if r.cfg.TopN <= 0 {
		r.cfg.TopN = 3
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// WithModelFactory replaces how model clients are built.
func (r *Recommender) WithModelFactory(f ModelFactory) *Recommender {
	r.newModel = f
	return r
}

func (r *Recommender) defaultModel(provider Provider, modelName string) (llms.Model, error) {
	switch provider {
	case OpenAI:
		if r.cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("%w: openai api key is empty", ErrNoProvider)
		}
		opts := []openai.Option{
			openai.WithToken(r.cfg.OpenAIKey),
			openai.WithModel(modelName),
		}
		if r.cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(r.cfg.OpenAIBaseURL))
		}
		return openai.New(opts...)
	case Ollama:
		if r.cfg.OllamaURL == "" {
			return nil, fmt.Errorf("%w: ollama url is empty", ErrNoProvider)
		}
		return ollama.New(
			ollama.WithServerURL(r.cfg.OllamaURL),
			ollama.WithModel(modelName),
			ollama.WithFormat("json"),
		)
	}
	return nil, fmt.Errorf("%w: provider %q", ErrUnknownModel, provider)
}

// Recommend ranks plans for the patient with the named model. A reply that
// is not the expected JSON is returned in Response.RawOutput, not as an
// error.
func (r *Recommender) Recommend(ctx context.Context, patient model.Patient, plans []map[string]any, modelName string) (Response, error) {
	if len(plans) == 0 {
		return Response{}, ErrNoPlans
	}
	provider, err := Route(modelName)
	if err != nil {
		return Response{}, err
	}
	llm, err := r.newModel(provider, modelName)
	if err != nil {
		return Response{}, fmt.Errorf("create %s client: %w", provider, err)
	}

	system := supportsSystemRole(modelName)
	messages, err := BuildMessages(patient, plans, r.cfg.TopN, system)
	if err != nil {
		return Response{}, err
	}

	var opts []llms.CallOption
	if system {
		opts = append(opts, llms.WithJSONMode())
	}
	if r.cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(r.cfg.MaxTokens))
	}

	r.logger.Info("requesting recommendation", "model", modelName, "provider", provider,
		"patient_id", patient.ID, "plans", len(plans))
	resp, err := llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return Response{}, fmt.Errorf("%s generate: %w", provider, err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%s generate: empty response", provider)
	}

	out := parseResponse(resp.Choices[0].Content, r.cfg.TopN)
	out.Model = modelName
	out.Provider = provider
	if out.Error != "" {
		r.logger.Warn("unparsable model output", "model", modelName, "err", out.Error)
	}
	return out, nil
}

func parseResponse(content string, topN int) Response {
	var parsed struct {
		RecommendedPlans []Recommendation `json:"recommended_plans"`
		Summary          string           `json:"summary"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &parsed); err != nil {
		return Response{RawOutput: content, Error: err.Error()}
	}
	if parsed.RecommendedPlans == nil {
		return Response{RawOutput: content, Error: "missing recommended_plans"}
	}

	plans := dedupe(parsed.RecommendedPlans)
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].Rank < plans[j].Rank })
	if len(plans) > topN {
		plans = plans[:topN]
	}
	return Response{RecommendedPlans: plans, Summary: parsed.Summary}
}

func dedupe(plans []Recommendation) []Recommendation {
	seen := make(map[string]bool, len(plans))
	out := plans[:0]
	for _, p := range plans {
		if seen[p.PlanID] {
			continue
		}
		seen[p.PlanID] = true
		out = append(out, p)
	}
	return out
}
