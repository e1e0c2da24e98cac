package content

import "github.com/vietddude/scriptforge/internal/core/domain"

// DefaultCTA is the call to action shared by every profile.
const DefaultCTA = "Briefly ask the viewer to subscribe and comment. Keep it under 10 words and energetic."

const longVideo = "Long YouTube video"

var smartProfiles = []domain.SmartProfile{
	{ID: "docu", Name: "Deep documentary", Settings: domain.ContentInputs{
		Persona: "Professional storyteller", Tone: "Mysterious", Style: "Documentary",
		Format: longVideo, Audience: "General public",
	}},
	{ID: "dark_psych", Name: "Dark psychology", Settings: domain.ContentInputs{
		Persona: "Body language and manipulation expert", Tone: "Dark", Style: "Deep psychological",
		Format: longVideo, Audience: "Mystery lovers",
	}},
	{ID: "history", Name: "Historical figures", Settings: domain.ContentInputs{
		Persona: "Historian", Tone: "Epic", Style: "Narrative storytelling",
		Format: longVideo, Audience: "General public",
	}},
	{ID: "true_crime", Name: "True crime", Settings: domain.ContentInputs{
		Persona: "Criminal investigator", Tone: "Suspenseful", Style: "Criminal investigation",
		Format: longVideo, Audience: "Mystery lovers",
	}},
	{ID: "tech", Name: "Tech review", Settings: domain.ContentInputs{
		Persona: "Tech expert", Tone: "Enthusiastic", Style: "Analytical",
		Format: longVideo, Audience: "Tech enthusiasts",
	}},
	{ID: "business", Name: "Money and business", Settings: domain.ContentInputs{
		Persona: "Entrepreneur", Tone: "Serious", Style: "Analytical",
		Format: longVideo, Audience: "Entrepreneurs",
	}},
	{ID: "health", Name: "Health and fitness", Settings: domain.ContentInputs{
		Persona: "Medical specialist", Tone: "Friendly", Style: "Science made simple",
		Format: longVideo, Audience: "General public",
	}},
	{ID: "edu", Name: "Tutorial", Settings: domain.ContentInputs{
		Persona: "Patient instructor", Tone: "Friendly", Style: "How-to",
		Format: longVideo, Audience: "Beginners",
	}},
}

// SmartProfiles returns the profile catalogue.
func SmartProfiles() []domain.SmartProfile {
	out := make([]domain.SmartProfile, len(smartProfiles))
	for i, p := range smartProfiles {
		p.Settings.CTA = DefaultCTA
		out[i] = p
	}
	return out
}

// Profile looks up a profile by ID.
func Profile(id string) (domain.SmartProfile, bool) {
	for _, p := range SmartProfiles() {
		if p.ID == id {
			return p, true
		}
	}
	return domain.SmartProfile{}, false
}

// ApplyProfile overlays a profile's voice settings onto inputs. Topic,
// language, length and output selection are kept.
func ApplyProfile(inputs domain.ContentInputs, id string) (domain.ContentInputs, bool) {
	p, ok := Profile(id)
	if !ok {
		return inputs, false
	}
	inputs.Persona = p.Settings.Persona
	inputs.Tone = p.Settings.Tone
	inputs.Style = p.Settings.Style
	inputs.Format = p.Settings.Format
	inputs.Audience = p.Settings.Audience
	inputs.CTA = p.Settings.CTA
	return inputs, true
}
