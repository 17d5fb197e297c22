package prompts

import (
	"fmt"
	"strings"
)

// Brand voice input kinds.
const (
	VoiceFromDescription = "description"
	VoiceFromCaptions    = "captions"
)

const brandVoiceSystem = `You name the voice a vacation rental host writes in.
Answer with exactly two lines:
BRAND_VOICE: <two plain words>
SUMMARY: <one short sentence a friend would say>

Use everyday words. Good: "Laid Back", "Warm Practical", "Quietly Proud".
Bad: "Luxurious Elegance", "Serene Sophistication", "Curated Experiences".
Good summary: "Like getting tips from a neighbour who loves the area."
Bad summary: "An exquisite blend of comfort and sophistication."`

// ComposeBrandVoice builds the analysis prompt. inputType is one of the
// VoiceFrom constants.
func ComposeBrandVoice(input, inputType string) Prompt {
	var user strings.Builder
	switch inputType {
	case VoiceFromCaptions:
		user.WriteString("Here are captions this host has posted before. Describe the voice they write in.\n\n")
	default:
		user.WriteString("Here is how this host describes their place. Describe the voice they write in.\n\n")
	}
	fmt.Fprintf(&user, "%s", strings.TrimSpace(input))
	return Prompt{System: brandVoiceSystem, User: user.String()}
}
