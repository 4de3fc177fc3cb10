// Package gateway is the single boundary to the inference provider. It
// owns credential resolution, retry policy, search grounding and the
// mapping from raw provider payloads into domain types.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/stgquant/stgtrade/config"
	"github.com/stgquant/stgtrade/models"
)

// invokeFunc matches client.Models.GenerateContent and is swapped out
// in tests.
type invokeFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Request describes one inference call.
type Request struct {
	Model             string
	SystemInstruction string
	Prompt            string
	UseSearch         bool
	Temperature       float32
}

// Gateway executes inference requests against the Gemini API.
type Gateway struct {
	cfg    config.Config
	log    *zap.Logger
	invoke invokeFunc
	sleep  func(context.Context, time.Duration) error
}

// New builds a gateway, resolving the credential from the config first
// and the GEMINI_API_KEY environment variable second. Absence of both
// is ErrCredentialMissing.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Gateway, error) {
	key := resolveKey(cfg)
	if key == "" {
		return nil, ErrCredentialMissing
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key})
	if err != nil {
		return nil, fmt.Errorf("create inference client: %w", err)
	}

	return &Gateway{
		cfg:    cfg,
		log:    log,
		invoke: client.Models.GenerateContent,
		sleep:  sleepCtx,
	}, nil
}

func resolveKey(cfg config.Config) string {
	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
}

// HasCredential reports whether an inference credential is resolvable
// without constructing a client.
func HasCredential(cfg config.Config) bool {
	return resolveKey(cfg) != ""
}

// Generate runs one inference request and maps the response text plus
// any search grounding sources.
func (g *Gateway) Generate(ctx context.Context, req Request) (*models.Generation, error) {
	gcfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.SystemInstruction != "" {
		gcfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.UseSearch {
		gcfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}

	var resp *genai.GenerateContentResponse
	err := callWithRetry(ctx, g.cfg.MaxRetries, time.Duration(g.cfg.RetryBaseDelaySec)*time.Second, g.sleep, g.log, func() error {
		var callErr error
		resp, callErr = g.invoke(ctx, req.Model, contents, gcfg)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrMalformedResponse)
	}

	return &models.Generation{
		Text:    text,
		Sources: extractSources(resp),
	}, nil
}

// extractSources pulls web grounding citations out of the response.
// Chunks without a URI carry nothing a reader can follow and are
// dropped.
func extractSources(resp *genai.GenerateContentResponse) []models.Source {
	if len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var sources []models.Source
	for _, chunk := range meta.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, models.Source{
			URI:   chunk.Web.URI,
			Title: chunk.Web.Title,
		})
	}
	return sources
}

// ResolveTicker looks up the display name and latest traded price for a
// symbol via a search-grounded call on the flash tier.
func (g *Gateway) ResolveTicker(ctx context.Context, symbol string) (models.TickerInfo, error) {
	prompt := fmt.Sprintf(`Look up the stock with ticker symbol %q. Respond with exactly one JSON object of the form {"name": "<company name>", "price": <latest traded price as a number>} and nothing else.`, symbol)

	gen, err := g.Generate(ctx, Request{
		Model:       config.FlashModel,
		Prompt:      prompt,
		UseSearch:   true,
		Temperature: 0.2,
	})
	if err != nil {
		return models.TickerInfo{}, err
	}

	payload, ok := firstJSONObject(gen.Text)
	if !ok {
		return models.TickerInfo{}, fmt.Errorf("%w: no JSON object in ticker lookup", ErrMalformedResponse)
	}

	var info models.TickerInfo
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		return models.TickerInfo{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(info.Name) == "" || info.Price <= 0 {
		return models.TickerInfo{}, fmt.Errorf("%w: incomplete ticker info", ErrMalformedResponse)
	}
	return info, nil
}

// firstJSONObject returns the first balanced top-level {...} block in
// the text. Models wrap JSON in prose or code fences often enough that
// strict whole-body parsing is not workable.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
