package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vietddude/scriptforge/internal/core/domain"
)

func TestSmartProfiles_Catalogue(t *testing.T) {
	ids := map[string]bool{}
	for _, p := range SmartProfiles() {
		ids[p.ID] = true
		assert.NotEmpty(t, p.Settings.CTA, p.ID)
	}
	for _, id := range []string{"docu", "dark_psych", "history", "true_crime", "tech", "business", "health", "edu"} {
		assert.True(t, ids[id], "missing profile %s", id)
	}
}

func TestApplyProfile(t *testing.T) {
	in := domain.ContentInputs{InputValue: "Saladin", Language: "Arabic", WordCount: 1200, Tone: "Funny"}

	out, ok := ApplyProfile(in, "history")
	assert.True(t, ok)
	assert.Equal(t, "Saladin", out.InputValue)
	assert.Equal(t, 1200, out.WordCount)
	assert.Equal(t, "Epic", out.Tone)
	assert.Equal(t, "Historian", out.Persona)

	same, ok := ApplyProfile(in, "missing")
	assert.False(t, ok)
	assert.Equal(t, in, same)
}
