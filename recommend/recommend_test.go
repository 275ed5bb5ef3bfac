package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"planrec/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func newTestRecommender(m *fakeModel, topN int) (*Recommender, *[]Provider) {
	var routed []Provider
	r := New(Config{TopN: topN, MaxTokens: 2048}, nil).WithModelFactory(func(p Provider, _ string) (llms.Model, error) {
		routed = append(routed, p)
		return m, nil
	})
	return r, &routed
}

var testPatient = model.Patient{ID: 7, Name: "Ana", Age: 34, Gender: "Female", State: "TX", Occupation: "Pilot"}

var testPlans = []map[string]any{
	{"PlanId": "TX-001", "PlanMarketingName": "Alpha"},
	{"PlanId": "TX-002", "PlanMarketingName": "Beta"},
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name string
		want Provider
		err  bool
	}{
		{"gpt-4o", OpenAI, false},
		{"gpt-4o-mini", OpenAI, false},
		{"o1-mini", OpenAI, false},
		{"o3-mini", OpenAI, false},
		{"llama3.1", Ollama, false},
		{"mistral-large", Ollama, false},
		{"", "", true},
		{"   ", "", true},
		{"../etc", "", true},
	}
	for _, tt := range tests {
		got, err := Route(tt.name)
		if tt.err {
			if !errors.Is(err, ErrUnknownModel) {
				t.Errorf("Route(%q) err = %v, want ErrUnknownModel", tt.name, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Route(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
}

func TestRecommendParsesAndCaps(t *testing.T) {
	reply := "```json\n" + `{
  "recommended_plans": [
    {"rank": 3, "PlanId": "TX-003", "TotalScore": 10},
    {"rank": 1, "PlanId": "TX-001", "PlanMarketingName": "Alpha", "TotalScore": 18},
    {"rank": 2, "PlanId": "TX-002", "TotalScore": 15},
    {"rank": 2, "PlanId": "TX-001", "TotalScore": 15},
    {"rank": 4, "PlanId": "TX-004", "TotalScore": 2}
  ],
  "summary": "Alpha covers travel best."
}` + "\n```"
	m := &fakeModel{reply: reply}
	r, routed := newTestRecommender(m, 3)

	resp, err := r.Recommend(context.Background(), testPatient, testPlans, "gpt-4o")
	require.NoError(t, err)

	assert.Equal(t, []Provider{OpenAI}, *routed)
	assert.Equal(t, "gpt-4o", resp.Model)
	assert.Empty(t, resp.RawOutput)
	assert.Equal(t, "Alpha covers travel best.", resp.Summary)
	require.Len(t, resp.RecommendedPlans, 3)
	assert.Equal(t, "TX-001", resp.RecommendedPlans[0].PlanID)
	assert.Equal(t, "TX-002", resp.RecommendedPlans[1].PlanID)
	assert.Equal(t, "TX-003", resp.RecommendedPlans[2].PlanID)

	assert.True(t, m.opts.JSONMode)
	assert.Equal(t, 2048, m.opts.MaxTokens)
	require.NotEmpty(t, m.messages)
	assert.Equal(t, schema.ChatMessageTypeSystem, m.messages[0].Role)
}

func TestRecommendPromptCarriesInputs(t *testing.T) {
	m := &fakeModel{reply: `{"recommended_plans": [], "summary": ""}`}
	r, _ := newTestRecommender(m, 3)

	_, err := r.Recommend(context.Background(), testPatient, testPlans, "llama3.1")
	require.NoError(t, err)

	var text strings.Builder
	for _, msg := range m.messages {
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				text.WriteString(tc.Text)
			}
		}
	}
	prompt := text.String()
	assert.Contains(t, prompt, `"occupation":"Pilot"`)
	assert.Contains(t, prompt, `"PlanId":"TX-002"`)
	assert.Contains(t, prompt, "best 3 plans")
}

func TestRecommendWithoutSystemRole(t *testing.T) {
	m := &fakeModel{reply: `{"recommended_plans": [], "summary": "none"}`}
	r, _ := newTestRecommender(m, 3)

	_, err := r.Recommend(context.Background(), testPatient, testPlans, "o1-mini")
	require.NoError(t, err)

	assert.False(t, m.opts.JSONMode)
	for _, msg := range m.messages {
		assert.Equal(t, schema.ChatMessageTypeHuman, msg.Role)
	}
}

func TestRecommendRawOutput(t *testing.T) {
	m := &fakeModel{reply: "I would pick the first plan."}
	r, _ := newTestRecommender(m, 3)

	resp, err := r.Recommend(context.Background(), testPatient, testPlans, "gpt-4o-mini")
	require.NoError(t, err)
	assert.Equal(t, "I would pick the first plan.", resp.RawOutput)
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.RecommendedPlans)
}

func TestRecommendErrors(t *testing.T) {
	ctx := context.Background()

	r, routed := newTestRecommender(&fakeModel{}, 3)
	_, err := r.Recommend(ctx, testPatient, nil, "gpt-4o")
	assert.ErrorIs(t, err, ErrNoPlans)

	_, err = r.Recommend(ctx, testPatient, testPlans, "")
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Empty(t, *routed)

	boom := errors.New("rate limited")
	r, _ = newTestRecommender(&fakeModel{err: boom}, 3)
	_, err = r.Recommend(ctx, testPatient, testPlans, "gpt-4o")
	assert.ErrorIs(t, err, boom)
}

func TestDefaultModelNeedsProviderConfig(t *testing.T) {
	r := New(Config{}, nil)
	_, err := r.Recommend(context.Background(), testPatient, testPlans, "gpt-4o")
	assert.ErrorIs(t, err, ErrNoProvider)

	_, err = r.Recommend(context.Background(), testPatient, testPlans, "llama3.1")
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestExtractJSON(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":      `{"a":1}`,
		"Here you go: {\"a\":{}} done": `{"a":{}}`,
		"no json":                      "no json",
	}
	for in, want := range tests {
		if got := extractJSON(in); got != want {
			t.Errorf("extractJSON(%q) = %q, want %q", in, got, want)
		}
	}
}
