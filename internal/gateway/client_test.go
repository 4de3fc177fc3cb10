package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/stgquant/stgtrade/config"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func testGateway(cfg config.Config, invoke invokeFunc, sleeps *[]time.Duration) *Gateway {
	return &Gateway{
		cfg:    cfg,
		log:    zap.NewNop(),
		invoke: invoke,
		sleep: func(_ context.Context, d time.Duration) error {
			if sleeps != nil {
				*sleeps = append(*sleeps, d)
			}
			return nil
		},
	}
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	cfg := *config.DefaultConfigWithRoot(t.TempDir())

	calls := 0
	var sleeps []time.Duration
	g := testGateway(cfg, func(ctx context.Context, model string, contents []*genai.Content, gcfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient upstream hiccup")
		}
		return textResponse("recovered"), nil
	}, &sleeps)

	gen, err := g.Generate(context.Background(), Request{Model: config.FlashModel, Prompt: "hi", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "recovered", gen.Text)
	assert.Equal(t, 3, calls)

	// 10s base, transient factor 1.5, exponent is the attempt number.
	require.Len(t, sleeps, 2)
	assert.Equal(t, 15*time.Second, sleeps[0])
	assert.InDelta(t, float64(22500*time.Millisecond), float64(sleeps[1]), float64(time.Millisecond))
}

func TestGenerateRateLimitBackoffIsSteeper(t *testing.T) {
	cfg := *config.DefaultConfigWithRoot(t.TempDir())

	calls := 0
	var sleeps []time.Duration
	g := testGateway(cfg, func(ctx context.Context, model string, contents []*genai.Content, gcfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, errors.New("429 Too Many Requests")
	}, &sleeps)

	_, err := g.Generate(context.Background(), Request{Model: config.FlashModel, Prompt: "hi"})
	require.Error(t, err)

	// MaxRetries 3 means four attempts, then give up.
	assert.Equal(t, 4, calls)
	require.Len(t, sleeps, 3)
	assert.Equal(t, 20*time.Second, sleeps[0])
	assert.Equal(t, 40*time.Second, sleeps[1])
	assert.Equal(t, 80*time.Second, sleeps[2])
}

func TestGenerateQuotaShortCircuits(t *testing.T) {
	cfg := *config.DefaultConfigWithRoot(t.TempDir())

	calls := 0
	g := testGateway(cfg, func(ctx context.Context, model string, contents []*genai.Content, gcfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, errors.New("You exceeded your current quota, please check your plan")
	}, nil)

	_, err := g.Generate(context.Background(), Request{Model: config.ProModel, Prompt: "hi"})
	require.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, 1, calls, "quota exhaustion must not burn retries")
}

func TestGenerateMapsGroundingSources(t *testing.T) {
	cfg := *config.DefaultConfigWithRoot(t.TempDir())

	resp := textResponse("dossier text")
	resp.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com/a", Title: "A"}},
			{Web: &genai.GroundingChunkWeb{Title: "no uri, dropped"}},
			{Web: nil},
			{Web: &genai.GroundingChunkWeb{URI: "https://example.com/b", Title: "B"}},
		},
	}

	g := testGateway(cfg, func(ctx context.Context, model string, contents []*genai.Content, gcfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return resp, nil
	}, nil)

	gen, err := g.Generate(context.Background(), Request{Model: config.FlashModel, Prompt: "hi", UseSearch: true})
	require.NoError(t, err)
	require.Len(t, gen.Sources, 2)
	assert.Equal(t, "https://example.com/a", gen.Sources[0].URI)
	assert.Equal(t, "B", gen.Sources[1].Title)
}

func TestResolveTickerParsesWrappedJSON(t *testing.T) {
	cfg := *config.DefaultConfigWithRoot(t.TempDir())

	g := testGateway(cfg, func(ctx context.Context, model string, contents []*genai.Content, gcfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return textResponse("Here you go:\n```json\n{\"name\": \"Example Corp\", \"price\": 123.45}\n```"), nil
	}, nil)

	info, err := g.ResolveTicker(context.Background(), "EXMP")
	require.NoError(t, err)
	assert.Equal(t, "Example Corp", info.Name)
	assert.Equal(t, 123.45, info.Price)
}

func TestResolveTickerRejectsIncompletePayload(t *testing.T) {
	cfg := *config.DefaultConfigWithRoot(t.TempDir())

	g := testGateway(cfg, func(ctx context.Context, model string, contents []*genai.Content, gcfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return textResponse(`{"name": "", "price": 0}`), nil
	}, nil)

	_, err := g.ResolveTicker(context.Background(), "EXMP")
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFirstJSONObject(t *testing.T) {
	payload, ok := firstJSONObject(`noise {"a": {"b": "}"}, "c": 1} trailing {"d": 2}`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": "}"}, "c": 1}`, payload)

	_, ok = firstJSONObject("no braces here")
	assert.False(t, ok)

	_, ok = firstJSONObject(`{"unterminated": true`)
	assert.False(t, ok)
}

func TestNewRequiresCredential(t *testing.T) {
	cfg := *config.DefaultConfigWithRoot(t.TempDir())
	cfg.APIKey = ""
	t.Setenv("GEMINI_API_KEY", "")

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.ErrorIs(t, err, ErrCredentialMissing)
}
