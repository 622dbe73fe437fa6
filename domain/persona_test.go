package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/endo-ava/link-persona-bot/domain"
)

func TestPersona_SystemMessage(t *testing.T) {
	tests := []struct {
		name    string
		persona domain.Persona
		want    string
	}{
		{
			name:    "prompt only",
			persona: domain.Persona{SystemPrompt: "You are terse."},
			want:    "You are terse.",
		},
		{
			name: "with examples",
			persona: domain.Persona{
				SystemPrompt: "You are terse.\n",
				Examples: []domain.PersonaExample{
					{Input: " Hello ", Output: "Hi."},
					{Input: "Explain Go.", Output: "No."},
				},
			},
			want: "You are terse.\n\nExample exchanges:\nUser: Hello\nYou: Hi.\nUser: Explain Go.\nYou: No.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.persona.SystemMessage())
		})
	}
}

func TestPersona_InfoAndDisplayName(t *testing.T) {
	p := domain.Persona{ID: "scholar", Name: "Scholar", Icon: "🎓", Color: 0x2ECC71, Description: "Cites sources."}

	assert.Equal(t, "🎓 Scholar", p.DisplayName())
	assert.Equal(t, domain.PersonaInfo{Name: "Scholar", Icon: "🎓", Color: 0x2ECC71, Description: "Cites sources."}, p.Info())
}
