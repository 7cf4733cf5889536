package service

import (
	"context"
	"testing"

	"virtuefeed/internal/featureflags"
	"virtuefeed/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlaggedRewriter(t *testing.T) {
	t.Parallel()

	primary := rewriterFunc(func(_ context.Context, s string) (string, error) { return "model: " + s, nil })

	tests := []struct {
		name  string
		flags string
		want  string
	}{
		{"flag on", "llm_rewrite=on", "model: hi"},
		{"flag off", "llm_rewrite=off", "hi"},
		{"flag absent", "", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rw := FlaggedRewriter{Flags: featureflags.Parse(tt.flags), Primary: primary, Fallback: TrimRewriter{}}
			ctx := context.WithValue(context.Background(), middleware.UserIDKey, "u1")
			out, err := rw.Rewrite(ctx, " hi ")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestParseLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, ParseLimit("", DefaultPostLimit, MaxPostLimit))
	assert.Equal(t, 10, ParseLimit("abc", DefaultPostLimit, MaxPostLimit))
	assert.Equal(t, 1, ParseLimit("0", DefaultPostLimit, MaxPostLimit))
	assert.Equal(t, 1, ParseLimit("-4", DefaultPostLimit, MaxPostLimit))
	assert.Equal(t, 50, ParseLimit("51", DefaultPostLimit, MaxPostLimit))
	assert.Equal(t, 100, ParseLimit("1000", DefaultCommentLimit, MaxCommentLimit))
	assert.Equal(t, 7, ParseLimit("7", DefaultCommentLimit, MaxCommentLimit))
}
