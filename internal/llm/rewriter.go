// Package llm adapts an OpenAI-compatible model into a content rewriter.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"virtuefeed/internal/config"
	"virtuefeed/internal/observability"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"
)

const systemPrompt = "Rewrite the user's text so it reads kind, constructive and respectful. " +
	"Keep the meaning, the language and roughly the length. " +
	"Reply with the rewritten text only, without quotes or commentary."

// ErrEmptyCompletion is returned when the model answers with no text.
var ErrEmptyCompletion = errors.New("llm returned an empty completion")

// Rewriter calls a chat model with a bounded number of requests in flight.
type Rewriter struct {
	model   llms.Model
	name    string
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewRewriter wraps model. maxConcurrency below one is treated as one.
func NewRewriter(model llms.Model, modelName string, maxConcurrency int, timeout time.Duration) *Rewriter {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Rewriter{
		model:   model,
		name:    modelName,
		sem:     semaphore.NewWeighted(int64(maxConcurrency)),
		timeout: timeout,
	}
}

// NewOpenAIRewriter builds a Rewriter from the REWRITE_* settings.
func NewOpenAIRewriter(cfg *config.Config) (*Rewriter, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.RewriteModel),
		openai.WithToken(cfg.RewriteAPIKey),
	}
	if cfg.RewriteBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.RewriteBaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return NewRewriter(model, cfg.RewriteModel, cfg.RewriteMaxConcurrency, time.Duration(cfg.RewriteTimeoutSeconds)*time.Second), nil
}

// Rewrite returns the model's rephrasing of text.
func (r *Rewriter) Rewrite(ctx context.Context, text string) (out string, err error) {
	start := time.Now()
	defer func() { observability.ObserveRewrite("openai", start, err) }()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)

	ctx, span := observability.GetTraceLayer().TraceOutboundCall(ctx, "llm", "rewrite")
	defer span.End()

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	resp, err := r.model.GenerateContent(ctx, messages,
		llms.WithModel(r.name),
		llms.WithTemperature(0.3),
	)
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	out = strings.TrimSpace(resp.Choices[0].Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}
