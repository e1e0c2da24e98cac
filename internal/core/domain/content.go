package domain

import "time"

// ContentInputs are the user's choices for one content-factory run.
type ContentInputs struct {
	InputType             string `json:"input_type"` // topic, url
	InputValue            string `json:"input_value"`
	Persona               string `json:"persona"`
	Tone                  string `json:"tone"`
	Style                 string `json:"style"`
	Format                string `json:"format"`
	Audience              string `json:"audience"`
	CTA                   string `json:"cta"`
	WordCount             int    `json:"word_count"`
	Language              string `json:"language"`
	IncludeMainScript     bool   `json:"include_main_script"`
	IncludeMetadata       bool   `json:"include_metadata"`
	IncludeShortsScript   bool   `json:"include_shorts_script"`
	IncludeShortsMetadata bool   `json:"include_shorts_metadata"`
	IncludeTiktokDesc     bool   `json:"include_tiktok_desc"`
}

// WantsMarketing reports whether the marketing package stage is needed.
func (in ContentInputs) WantsMarketing() bool {
	return in.IncludeMetadata || in.IncludeShortsScript || in.IncludeTiktokDesc
}

// ContentOutputs is the assembled result of a content-factory run.
type ContentOutputs struct {
	MainScript        string   `json:"main_script"`
	MetaTitle         string   `json:"meta_title"`
	MetaDescription   string   `json:"meta_description"`
	MetaKeywords      []string `json:"meta_keywords"`
	ShortsScript      string   `json:"shorts_script"`
	ShortsTitle       string   `json:"shorts_title"`
	ShortsDescription string   `json:"shorts_description"`
	ShortsKeywords    []string `json:"shorts_keywords"`
	TiktokDescription string   `json:"tiktok_description"`
}

// ContentSession is one saved history entry.
type ContentSession struct {
	ID        string         `json:"id"         db:"id"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	Title     string         `json:"title"      db:"title"`
	Inputs    ContentInputs  `json:"inputs"`
	Outputs   ContentOutputs `json:"outputs"`
}

// SmartProfile is a named preset of content inputs.
type SmartProfile struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Settings ContentInputs `json:"settings"`
}
