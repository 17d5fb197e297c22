package generation

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"hostprompt/internal/llm"
	"hostprompt/internal/prompts"
)

// BrandVoice is a two-word voice label plus a one-sentence summary.
type BrandVoice struct {
	BrandVoice        string `json:"brandVoice"`
	BrandVoiceSummary string `json:"brandVoiceSummary"`
}

// FallbackVoice is returned whenever analysis fails.
var FallbackVoice = BrandVoice{
	BrandVoice:        "Chill Vibes",
	BrandVoiceSummary: "Just like chatting with a friend",
}

var (
	voiceLineRe   = regexp.MustCompile(`(?mi)^[ \t*]*brand[_ ]?voice[ \t*]*:[ \t]*(.+)$`)
	summaryLineRe = regexp.MustCompile(`(?mi)^[ \t*]*summary[ \t*]*:[ \t]*(.+)$`)
	fenceRe       = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// Analyzer names the voice a host writes in.
type Analyzer struct {
	LLM llm.Client
	// Model overrides the client's default model when set.
	Model string
}

// Analyze never fails; model or parse errors yield FallbackVoice.
func (a Analyzer) Analyze(ctx context.Context, input, inputType string) BrandVoice {
	if a.LLM == nil || strings.TrimSpace(input) == "" {
		return FallbackVoice
	}

	prompt := prompts.ComposeBrandVoice(input, inputType)
	raw, err := a.LLM.ChatCompletion(llm.WithMaxTokens(llm.WithModel(ctx, a.Model), 200), llm.Conversation(prompt.System, prompt.User), 0.5)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("brand voice analysis failed, using fallback")
		return FallbackVoice
	}

	voice, ok := ParseBrandVoice(raw)
	if !ok {
		log.Ctx(ctx).Warn().Str("raw", raw).Msg("brand voice answer unparseable, using fallback")
		return FallbackVoice
	}
	return voice
}

// ParseBrandVoice reads either BRAND_VOICE:/SUMMARY: lines or a JSON object
// with brandVoice/brandVoiceSummary keys.
func ParseBrandVoice(raw string) (BrandVoice, bool) {
	raw = strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}

	var v BrandVoice
	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return BrandVoice{}, false
		}
	} else {
		if m := voiceLineRe.FindStringSubmatch(raw); m != nil {
			v.BrandVoice = m[1]
		}
		if m := summaryLineRe.FindStringSubmatch(raw); m != nil {
			v.BrandVoiceSummary = m[1]
		}
	}

	v.BrandVoice = twoWords(v.BrandVoice)
	v.BrandVoiceSummary = strings.Trim(strings.TrimSpace(v.BrandVoiceSummary), `"'*`)
	if v.BrandVoice == "" || v.BrandVoiceSummary == "" {
		return BrandVoice{}, false
	}
	return v, true
}

func twoWords(label string) string {
	words := strings.Fields(strings.Trim(strings.TrimSpace(label), `"'*.`))
	if len(words) > 2 {
		words = words[:2]
	}
	for i, w := range words {
		words[i] = strings.Trim(w, `"'*.,`)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}
