package domain

// Segment is one scene of a script moving through visual post-processing.
type Segment struct {
	ID             string `json:"id"`
	OriginalText   string `json:"original_text"`
	EngineeredText string `json:"engineered_text"`
	VisualPrompt   string `json:"visual_prompt"`
	SFXKeyword     string `json:"sfx_keyword"`
	Processed      bool   `json:"is_processed"`
	Error          bool   `json:"error"`
}

// SceneResult is the per-segment shape returned by the unified scene call.
type SceneResult struct {
	Tashkeel     string `json:"tashkeel"`
	VisualPrompt string `json:"visual_prompt"`
	SFX          string `json:"sfx"`
}

// ScenePrompt is the per-segment shape of the batch prompt call.
type ScenePrompt struct {
	Prompt string `json:"prompt"`
	SFX    string `json:"sfx"`
}
