package service

import (
	"context"
	"log/slog"
	"strings"

	"virtuefeed/internal/featureflags"
	"virtuefeed/internal/middleware"
	"virtuefeed/internal/validation"
)

// RewriteFlag names the rollout switch for model-backed rewriting.
const RewriteFlag = "llm_rewrite"

// ContentRewriter transforms user text before it is stored.
type ContentRewriter interface {
	Rewrite(ctx context.Context, text string) (string, error)
}

// TrimRewriter stores text as written, minus surrounding whitespace.
type TrimRewriter struct{}

// Rewrite implements ContentRewriter.
func (TrimRewriter) Rewrite(_ context.Context, text string) (string, error) {
	return strings.TrimSpace(text), nil
}

// FlaggedRewriter routes users inside the RewriteFlag rollout to Primary and
// everyone else to Fallback. The user is read from the request context and
// both rewriters receive trimmed text.
type FlaggedRewriter struct {
	Flags    *featureflags.Set
	Primary  ContentRewriter
	Fallback ContentRewriter
}

// Rewrite implements ContentRewriter.
func (r FlaggedRewriter) Rewrite(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if r.Flags.Enabled(RewriteFlag, middleware.UserIDFromContext(ctx)) {
		return r.Primary.Rewrite(ctx, text)
	}
	return r.Fallback.Rewrite(ctx, text)
}

// applyRewrite runs rw over already trimmed text. Failures, blank output and
// output that no longer fits rule keep the trimmed text.
func applyRewrite(ctx context.Context, rw ContentRewriter, trimmed string, rule validation.TextRule) string {
	if rw == nil {
		return trimmed
	}

	out, err := rw.Rewrite(ctx, trimmed)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "content rewrite failed, storing original text",
			slog.String("error", err.Error()))
		return trimmed
	}

	out = strings.TrimSpace(out)
	if out == "" || !rule.Fits(out) {
		return trimmed
	}
	return out
}
