package prompt

// Defaults returns the built-in templates.
func Defaults() []Template {
	return []Template{
		{
			ID:          DetectLanguage,
			Name:        "Detect language",
			Description: "Identify the language of the input text.",
			Category:    "Analysis",
			Variables:   []string{"text"},
			Text: `
Identify the language of the following text.

Text: "{text}"

Return ONLY the English name of the language (for example "Arabic", "English", "French").
If the text is mixed or unclear, return "Arabic".
`,
		},
		{
			ID:          DetectSmartProfile,
			Name:        "Match smart profile",
			Description: "Pick the best matching profile ID for a topic.",
			Category:    "Analysis",
			Variables:   []string{"topic", "profilesJson"},
			Text: `
Role: content strategist.
Task: choose the smart profile that best fits the topic.

Topic: "{topic}"

Profiles:
{profilesJson}

Guidance:
- psychology, manipulation, hidden motives: "dark_psych"
- history, wars, biographies: "history"
- crime, mysteries, investigations: "true_crime"
- technology, gadgets, AI: "tech"
- business, money, markets: "business"
- health, diet, fitness: "health"
- tutorials and how-to: "edu"
- general stories: "docu"

Return ONLY a JSON object such as { "id": "history" }.
When nothing fits well, return { "id": "docu" }.
`,
		},
		{
			ID:          GenerateTitlesOnly,
			Name:        "Viral titles",
			Description: "Five high-CTR titles with a short psychology breakdown.",
			Category:    "Optimization",
			Variables:   []string{"currentTitle", "language"},
			Text: `
Task: write 5 viral YouTube titles for the topic "{currentTitle}".
Language: {language}.

Each title needs a high click-through rate, strong power words and a short
analysis of the psychology behind it.

Return JSON:
{
  "titles": [
    {
      "title": "Proposed title",
      "score": 90,
      "psychology": {
        "curiosityScore": 85,
        "urgencyScore": 70,
        "emotionType": "Shock",
        "powerWords": ["Secret", "Never"],
        "analysis": "Why it works"
      }
    }
  ]
}
`,
		},
		{
			ID:          GenerateFullScript,
			Name:        "Full video script",
			Description: "A narration-ready script that opens on a hook.",
			Category:    "Creative",
			Variables:   []string{"title", "wordCount", "language", "tone", "audience", "format", "persona", "style", "cta"},
			Text: `
ROLE: professional scriptwriter speaking as "{persona}".
TASK: write a high-retention {format} about "{title}".

LANGUAGE: write the whole script in {language}. For Arabic use Modern Standard Arabic only, no dialects.
NUMBERS: spell every number out as words in {language}.
TONE: {tone}, paced for {audience}. Short sentences grouped into coherent paragraphs, frequent full stops, no run-on sentences.
ADDRESS: speak directly to the viewer in the second person.
IMAGERY: concrete, sensory language. Show, don't tell.
LENGTH: about {wordCount} words. Reach it with depth and examples, never with repetition.

STRUCTURE:
1. Hook: two or three sentences with a shocking fact, a mystery or a provocative question. No greetings, no "in this video".
2. Body, following the {style} style:
   - lists and tutorials: 4 to 7 numbered pillars with actionable value;
   - narrative and documentary: a flowing story arc, never numbered steps;
   - analysis: peel the topic layer by layer and answer "why".
3. Outro under 40 words: one lingering final thought, then "{cta}". No recap.

FORMAT: clean plain text for voiceover. No markdown, no headings, no labels, no scene directions.
Return ONLY the spoken script.
`,
		},
		{
			ID:          GenerateMarketingPackage,
			Name:        "Marketing package",
			Description: "YouTube metadata, a Shorts script and a TikTok caption in one call.",
			Category:    "Optimization",
			Variables:   []string{"script", "language"},
			Text: `
ROLE: viral marketing strategist.
TASK: build a complete marketing package for the script below.
TARGET LANGUAGE: {language}

1. YouTube metadata: a viral title, a description with timestamps and hashtags, and SEO tags.
2. Shorts: a 60 second script built on the most interesting fact (hook, value, call to action),
   written strictly in {language} (Modern Standard Arabic only when the language is Arabic).
   The last sentence loops back to the first. No labels or bracketed section names.
3. TikTok: a punchy description with hashtags.

Return a SINGLE JSON object with exactly these keys:
{
  "metaTitle": "Viral title",
  "metaDescription": "Full description",
  "metaKeywords": ["tag1", "tag2"],
  "shortsTitle": "Shorts title",
  "shortsScript": "Shorts script",
  "shortsDescription": "Shorts description",
  "shortsKeywords": ["tag1"],
  "tiktokDescription": "TikTok description"
}

SCRIPT:
{script}
`,
		},
		{
			ID:          AddTashkeel,
			Name:        "Add tashkeel",
			Description: "Full Arabic diacritization for text-to-speech.",
			Category:    "Creative",
			Variables:   []string{"text"},
			Text: `
ROLE: Arabic linguist.
TASK: add full diacritics (tashkeel) to the text so a text-to-speech engine pronounces it correctly.

TEXT:
"{text}"

Keep the meaning and structure unchanged and apply correct grammar.
Return ONLY the vocalized text.
`,
		},
		{
			ID:          SuggestArtStyle,
			Name:        "Suggest art style",
			Description: "Choose the visual style that fits a script.",
			Category:    "Vision",
			Variables:   []string{"text"},
			Text: `
ROLE: art director.
TASK: pick the ONE visual style from the library that best fits the mood of the script.

SCRIPT:
"{text}"

LIBRARY:
1. Historical oil painting, neoclassical style, dramatic chiaroscuro lighting, epic, moody, highly detailed
2. Documentary film still, high contrast black and white, 35mm grain, intense close-up, raw footage look
3. Dark and gritty aesthetic, high-contrast monochrome, dramatic cinematic lighting, photorealistic, 8k
4. Neo-noir cinematic still, shadow play, 1940s detective aesthetic, moody blues and golds
5. Epic historical reconstruction, wide panoramic shot, golden hour lighting, period costumes, massive scale
6. Abstract conceptual art, surrealism meets scientific illustration, neutral background, minimalist palette
7. Vintage 1970s documentary look, film grain, muted earth tones, authentic analog feel
8. Stick figure illustration, black and white, flat 2D, minimalistic, symbolic
9. Cinematic still, ultra-realistic, anamorphic lens, dramatic lighting, wide angle
10. Studio Ghibli aesthetic, painterly watercolor backgrounds, soft golden hour lighting
11. Cyberpunk style, neon-drenched city, futuristic, glowing lights, dark, moody
12. Detailed pencil sketch, hand-drawn, black and white, hatching, concept art
13. Cinematic, dramatic lighting, epic, photo, realistic

Return ONLY the keyword string of the chosen style.
`,
		},
		{
			ID:          GenerateBatchScenePrompts,
			Name:        "Batch scene prompts",
			Description: "Image prompts for several scenes in one request.",
			Category:    "Vision",
			Variables:   []string{"segmentsJson", "style"},
			Text: `
ROLE: visual director.
TASK: write one English image prompt per scene.

SCENES (JSON):
{segmentsJson}

ART STYLE:
{style}

Each prompt follows "[scene description], {style}, [lighting and mood], Unreal Engine 5 Render, 8k, no text".
Keep prompts descriptive but concise.

Return a valid JSON ARRAY of strings, one per scene, in input order.
`,
		},
		{
			ID:          ProcessScenesUnified,
			Name:        "Unified scene processing",
			Description: "Tashkeel, image prompt and sound effect per scene in one request.",
			Category:    "Production",
			Variables:   []string{"segmentsJson", "style"},
			Text: `
Role: post-production engine.
Task: process each script segment below.
Visual style: {style}

Segments:
{segmentsJson}

For every segment, in input order:
1. tashkeel: if the text is Arabic, add full diacritics. If it is NOT Arabic, return the
   original text character for character. Never translate it.
2. visual_prompt: an English image prompt. Detect the genre first and pick fitting materials
   (glass, metal and neon for technology; stone, marble and parchment for history; fog, mirrors
   and neural patterns for psychology). Order: subject as a wide shot, then "{style}", then
   "Unreal Engine 5 Render, no text". Do not repeat keywords already in the style.
3. sfx: a one-word sound effect keyword such as "wind", "click" or "crowd".

Return a valid JSON ARRAY without markdown code fences:
[
  {
    "tashkeel": "processed text",
    "visual_prompt": "subject, {style}, Unreal Engine 5 Render, no text",
    "sfx": "keyword"
  }
]
`,
		},
	}
}
