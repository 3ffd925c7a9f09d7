package tickets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderChannelName(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		username string
		form     map[string]string
		want     string
	}{
		{
			name:     "default template",
			tmpl:     "",
			username: "Alice",
			want:     "ticket-alice",
		},
		{
			name:     "field substitution",
			tmpl:     "bug-{component}",
			username: "Alice",
			form:     map[string]string{"component": "API Server"},
			want:     "bug-api-server",
		},
		{
			name:     "fallback used when field empty",
			tmpl:     "bug-{component|misc}",
			username: "Alice",
			form:     map[string]string{},
			want:     "bug-misc",
		},
		{
			name:     "fallback ignored when field set",
			tmpl:     "bug-{component|misc}",
			username: "Alice",
			form:     map[string]string{"component": "db"},
			want:     "bug-db",
		},
		{
			name:     "missing field without fallback drops token",
			tmpl:     "bug-{component}-x",
			username: "Alice",
			want:     "bug-x",
		},
		{
			name:     "username token",
			tmpl:     "help-{username}-{username}",
			username: "Bob Smith",
			want:     "help-bob-smith-bob-smith",
		},
		{
			name:     "unterminated brace kept literally then sanitised",
			tmpl:     "abc-{oops",
			username: "x",
			want:     "abc-oops",
		},
		{
			name:     "special characters collapse to single dashes",
			tmpl:     "{topic}",
			username: "x",
			form:     map[string]string{"topic": "Can't  log__in!!"},
			want:     "can-t-log-in",
		},
		{
			name:     "everything stripped falls back",
			tmpl:     "{topic}",
			username: "x",
			form:     map[string]string{"topic": "!!!"},
			want:     "ticket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderChannelName(tt.tmpl, tt.username, tt.form))
		})
	}
}

func TestSanitizeChannelNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 150)

	got := sanitizeChannelName(long)
	assert.Len(t, got, 100)
}
