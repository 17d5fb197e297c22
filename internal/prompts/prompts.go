// Package prompts composes the instructions sent to the language model.
// Everything here is pure text assembly; no calls leave the process.
package prompts

import (
	"fmt"
	"strings"

	"hostprompt/internal/storage"
)

// BrandVoice is the voice a request asks for. CustomVoice wins over the
// tone/style pair when set.
type BrandVoice struct {
	Tone               string `json:"tone,omitempty" validate:"omitempty,oneof=professional friendly luxury casual exciting"`
	Style              string `json:"style,omitempty" validate:"omitempty,oneof=descriptive minimalist storytelling direct"`
	CustomVoice        string `json:"customVoice,omitempty" validate:"max=200"`
	CustomVoiceSummary string `json:"customVoiceSummary,omitempty" validate:"max=500"`
}

// Label names the voice as it is reported back to the caller.
func (v BrandVoice) Label() string {
	if v.CustomVoice != "" {
		return v.CustomVoice
	}
	return v.Tone + ", " + v.Style
}

// ParseVoiceLabel reverses Label. A "tone, style" pair from the known lists
// comes back as Tone and Style; anything else is a custom voice.
func ParseVoiceLabel(label string) BrandVoice {
	label = strings.TrimSpace(label)
	if tone, style, ok := strings.Cut(label, ", "); ok {
		_, knownTone := toneGuide[tone]
		_, knownStyle := styleGuide[style]
		if knownTone && knownStyle {
			return BrandVoice{Tone: tone, Style: style}
		}
	}
	return BrandVoice{CustomVoice: label}
}

// IsZero reports whether no voice was requested at all.
func (v BrandVoice) IsZero() bool {
	return v == BrandVoice{}
}

// Request carries everything the composer needs besides the property.
type Request struct {
	ContentType     storage.ContentType
	BrandVoice      BrandVoice
	CTA             storage.CTAEnhancements
	ContentLength   string
	CustomWordCount int
	ImageCaption    string
}

// Prompt is a system and user instruction pair.
type Prompt struct {
	System string
	User   string
}

const (
	DefaultTone   = "friendly"
	DefaultStyle  = "descriptive"
	DefaultLength = "medium"
)

var (
	Tones   = []string{"professional", "friendly", "luxury", "casual", "exciting"}
	Styles  = []string{"descriptive", "minimalist", "storytelling", "direct"}
	Lengths = []string{"short", "medium", "long"}
)

// ForbiddenWords are marketing adjectives the model must never use.
var ForbiddenWords = []string{
	"luxe", "serene", "stunning", "breathtaking", "nestled", "oasis",
	"haven", "tranquil", "idyllic", "unparalleled", "exquisite", "boasts",
	"gem", "paradise", "picturesque", "charming", "cozy retreat", "hidden gem",
}

const baseSystem = "You write copy for short-term rental hosts. Write like a real host talking to a guest: " +
	"plain words, concrete details, no hype. Never invent amenities, views or facts that are not in the " +
	"material you are given. Output plain text only: no markdown, no headings, no bullet points, no " +
	"labels such as \"Caption:\" or \"Description:\"."

var toneGuide = map[string]string{
	"professional": "clear and polished, like a well-run small hotel",
	"friendly":     "warm and welcoming, like a neighbour giving tips",
	"luxury":       "calm and refined, confident without superlatives",
	"casual":       "relaxed and chatty, short sentences",
	"exciting":     "upbeat and energetic, but still concrete",
}

var styleGuide = map[string]string{
	"descriptive":  "paint the space with specific sensory details",
	"minimalist":   "keep it spare, only the essentials",
	"storytelling": "frame it as a moment a guest will live through",
	"direct":       "lead with the facts and the reason to book",
}

// Compose builds the prompt pair for one generation request. An empty
// photoDescription means no photo was supplied.
func Compose(req Request, property storage.Property, photoDescription string) Prompt {
	voice := ResolveVoice(req.BrandVoice, property)

	var sys strings.Builder
	sys.WriteString(baseSystem)
	sys.WriteString("\n\n")
	sys.WriteString(ruleFor(req.ContentType))
	sys.WriteString("\n\n")
	sys.WriteString(voiceInstruction(voice))
	sys.WriteString("\n\n")
	sys.WriteString(forbiddenInstruction())

	var user strings.Builder
	fmt.Fprintf(&user, "Write a %s for the rental below.\n\n", strings.ToLower(req.ContentType.Label()))
	if photoDescription != "" {
		writePhotoWeighted(&user, property, photoDescription, req.ImageCaption)
	} else {
		writePropertyFacts(&user, property)
	}

	fmt.Fprintf(&user, "\n%s\n", lengthInstruction(req.ContentLength, req.CustomWordCount))
	for _, line := range ctaLines(req.CTA) {
		fmt.Fprintf(&user, "%s\n", line)
	}
	if req.ContentType.GuestFacing() && strings.TrimSpace(property.HostSignature) != "" {
		fmt.Fprintf(&user, "Sign off with exactly: %s\n", strings.TrimSpace(property.HostSignature))
	}
	user.WriteString("\nStart your answer with one line in the form \"Title: <a short title>\". ")
	user.WriteString("Do not write hashtags; they are added afterwards.")

	return Prompt{System: sys.String(), User: user.String()}
}

// ResolveVoice applies the property's default voice and the tone/style
// defaults.
func ResolveVoice(v BrandVoice, property storage.Property) BrandVoice {
	v.CustomVoice = strings.TrimSpace(v.CustomVoice)
	v.CustomVoiceSummary = strings.TrimSpace(v.CustomVoiceSummary)
	if v.IsZero() && property.UseBrandVoiceDefault && strings.TrimSpace(property.BrandVoice) != "" {
		return BrandVoice{
			CustomVoice:        strings.TrimSpace(property.BrandVoice),
			CustomVoiceSummary: strings.TrimSpace(property.BrandVoiceSummary),
		}
	}
	if v.CustomVoice != "" {
		return BrandVoice{CustomVoice: v.CustomVoice, CustomVoiceSummary: v.CustomVoiceSummary}
	}
	if _, ok := toneGuide[v.Tone]; !ok {
		v.Tone = DefaultTone
	}
	if _, ok := styleGuide[v.Style]; !ok {
		v.Style = DefaultStyle
	}
	v.CustomVoiceSummary = ""
	return v
}

func voiceInstruction(v BrandVoice) string {
	if v.CustomVoice != "" {
		s := fmt.Sprintf("Brand voice (authoritative, it overrides any other tone guidance): %q.", v.CustomVoice)
		if v.CustomVoiceSummary != "" {
			s += fmt.Sprintf(" In the host's words: %q.", v.CustomVoiceSummary)
		}
		return s
	}
	return fmt.Sprintf("Tone: %s (%s). Style: %s (%s).", v.Tone, toneGuide[v.Tone], v.Style, styleGuide[v.Style])
}

func forbiddenInstruction() string {
	return "Never use these words: " + strings.Join(ForbiddenWords, ", ") + "."
}

func writePhotoWeighted(b *strings.Builder, p storage.Property, description, caption string) {
	b.WriteString("PHOTO DESCRIPTION (primary source: about 90% of the text must be grounded in it):\n")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n")
	if c := strings.TrimSpace(caption); c != "" {
		fmt.Fprintf(b, "Host's note about the photo: %s\n", c)
	}

	b.WriteString("\nMINIMAL CONTEXT (only to anchor the photo, do not list it):\n")
	fmt.Fprintf(b, "- Name: %s\n", p.Name)
	if p.Location != "" {
		fmt.Fprintf(b, "- Location: %s\n", p.Location)
	}
	if amenities := firstN(p.Amenities, 2); len(amenities) > 0 {
		fmt.Fprintf(b, "- Amenities: %s\n", strings.Join(amenities, ", "))
	}

	b.WriteString("\nSECONDARY (about 10% of the text): calls to action and booking prompts.\n")
}

func writePropertyFacts(b *strings.Builder, p storage.Property) {
	b.WriteString("PROPERTY:\n")
	fmt.Fprintf(b, "- Name: %s\n", p.Name)
	if p.Location != "" {
		fmt.Fprintf(b, "- Location: %s\n", p.Location)
	}
	if p.Bedrooms > 0 {
		fmt.Fprintf(b, "- Bedrooms: %d\n", p.Bedrooms)
	}
	if p.Bathrooms > 0 {
		fmt.Fprintf(b, "- Bathrooms: %g\n", p.Bathrooms)
	}
	if len(p.Amenities) > 0 {
		fmt.Fprintf(b, "- Amenities: %s\n", strings.Join(p.Amenities, ", "))
	}
	if d := strings.TrimSpace(p.Description); d != "" {
		fmt.Fprintf(b, "- Host's description: %s\n", d)
	}
}

func lengthInstruction(length string, exact int) string {
	if exact > 0 {
		return fmt.Sprintf("Length: exactly %d words.", exact)
	}
	switch length {
	case "short":
		return "Length: about 15 words."
	case "long":
		return "Length: 75-100 words or a little more."
	default:
		return "Length: 30-50 words."
	}
}

func ctaLines(cta storage.CTAEnhancements) []string {
	var lines []string
	if cta.Urgency {
		lines = append(lines, "Add a light sense of urgency, such as limited open dates.")
	}
	if cta.SocialProof {
		lines = append(lines, "Mention that past guests keep coming back.")
	}
	if cta.Benefits {
		lines = append(lines, "Spell out one concrete benefit of booking this stay.")
	}
	if cta.DirectCTA {
		lines = append(lines, "End with a direct invitation to book.")
	}
	return lines
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
