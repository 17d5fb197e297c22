// Package postprocess cleans raw model output into the title, body and
// keywords returned to hosts. Every function here is pure and never fails; a
// pattern that matches nothing leaves the text untouched.
package postprocess

import (
	"regexp"
	"strings"

	"hostprompt/internal/storage"
)

// Result is the cleaned form of one model response.
type Result struct {
	Title    string
	Body     string
	Keywords []string
	// Suggested holds keywords the model offered or the fallback extractor
	// found. The hashtag policy decides Keywords; Suggested is informational.
	Suggested []string
}

const maxFallbackKeywords = 5

var (
	titleMarker    = regexp.MustCompile(`(?mi)^[ \t]*\**title\**:[ \t]*(.*)$`)
	keywordsMarker = regexp.MustCompile(`(?mi)^[ \t]*\**keywords\**:[ \t]*(.*)$`)

	hashtagRe    = regexp.MustCompile(`#\w+`)
	hashWordRe   = regexp.MustCompile(`#(\w+)`)
	headingRe    = regexp.MustCompile(`^[ \t]{0,3}#{1,3}[ \t]+`)
	bulletRe     = regexp.MustCompile(`^[ \t]*(?:[-*•]|\d{1,3}[.)])[ \t]+`)
	labelRe      = regexp.MustCompile(`^[A-Z][a-zA-Z]{1,20}:[ \t]*`)
	emphasisRe   = regexp.MustCompile(`\*{1,3}([^*\n]+?)\*{1,3}`)
	underlineRe  = regexp.MustCompile(`__([^_\n]+?)__`)
	spacesRe     = regexp.MustCompile(`[ \t]{2,}`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
	blockSplitRe = regexp.MustCompile(`\n[ \t]*\n`)

	listItemRe     = regexp.MustCompile(`^[ \t]*(?:\d{1,3}[.)]|[-*•])[ \t]*\S`)
	listLabelRe    = regexp.MustCompile(`^[ \t]*\**[A-Za-z][A-Za-z ]{0,20}\**:`)
	hashtagsOnlyRe = regexp.MustCompile(`^[ \t]*(?:#\w+[ \t,]*)+$`)
)

var travelWords = []string{
	"vacation", "getaway", "beach", "mountain", "lake",
	"retreat", "escape", "adventure", "relax", "cabin",
}

var travelWordRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(travelWords))
	for i, w := range travelWords {
		out[i] = regexp.MustCompile(`(?i)\b` + w + `\b`)
	}
	return out
}()

// Process runs the full cleanup for one content type. saved is the
// property's hashtag list.
func Process(raw string, contentType storage.ContentType, saved []string) Result {
	title, keywords, rest, found := ExtractMarkers(raw)
	if !found {
		keywords = FallbackKeywords(raw)
	}

	if contentType == storage.ContentSocialCaption {
		rest = DropTrailingKeywordSection(rest)
	}
	rest = StripFormatting(rest)

	body, final := ApplyHashtags(rest, saved)
	return Result{
		Title:     title,
		Body:      body,
		Keywords:  final,
		Suggested: keywords,
	}
}

// ExtractMarkers pulls "Title:" and "Keywords:" lines out of raw. found
// reports whether a Keywords line was present.
func ExtractMarkers(raw string) (title string, keywords []string, rest string, found bool) {
	rest = raw

	if m := titleMarker.FindStringSubmatch(rest); m != nil {
		title = cleanTitle(m[1])
		rest = removeFirstLine(rest, titleMarker)
	}

	if m := keywordsMarker.FindStringSubmatch(rest); m != nil {
		found = true
		keywords = splitKeywords(m[1])
		rest = removeFirstLine(rest, keywordsMarker)
	}

	return title, keywords, strings.TrimSpace(rest), found
}

// FallbackKeywords collects hashtag words and known travel words from raw,
// unique case-insensitively, at most five.
func FallbackKeywords(raw string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, maxFallbackKeywords)
	add := func(word string) bool {
		key := strings.ToLower(word)
		if _, ok := seen[key]; ok {
			return len(out) < maxFallbackKeywords
		}
		seen[key] = struct{}{}
		out = append(out, word)
		return len(out) < maxFallbackKeywords
	}

	for _, m := range hashWordRe.FindAllStringSubmatch(raw, -1) {
		if !add(m[1]) {
			return out
		}
	}
	for i, re := range travelWordRes {
		if re.MatchString(raw) && !add(travelWords[i]) {
			return out
		}
	}
	return out
}

// StripFormatting removes markdown and preamble artifacts. Running it on its
// own output changes nothing: trimming can expose a new line-start pattern,
// so passes repeat until the text settles.
func StripFormatting(text string) string {
	for {
		next := stripPass(text)
		if next == text {
			return next
		}
		text = next
	}
}

// stripPass only ever removes characters, so StripFormatting terminates.
func stripPass(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		cleaned := cleanLine(line)
		if cleaned != line && strings.TrimSpace(cleaned) == "" {
			continue
		}
		out = append(out, cleaned)
	}

	joined := strings.Join(out, "\n")
	joined = blankRunRe.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

// cleanLine applies the line transforms until none of them changes
// anything. Each transform only removes characters, so this terminates.
func cleanLine(line string) string {
	for {
		next := headingRe.ReplaceAllString(line, "")
		next = bulletRe.ReplaceAllString(next, "")
		next = labelRe.ReplaceAllString(next, "")
		next = underlineRe.ReplaceAllString(next, "$1")
		next = emphasisRe.ReplaceAllString(next, "$1")
		next = strings.ReplaceAll(next, "**", "")
		next = strings.TrimRight(next, " \t")
		if next == line {
			return line
		}
		line = next
	}
}

// DropTrailingKeywordSection removes the last blank-line separated block
// when it is nothing but a keyword or hashtag list.
func DropTrailingKeywordSection(text string) string {
	trimmed := strings.TrimSpace(text)
	blocks := blockSplitRe.Split(trimmed, -1)
	if len(blocks) < 2 {
		return trimmed
	}

	last := blocks[len(blocks)-1]
	for _, line := range strings.Split(last, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !listItemRe.MatchString(line) && !listLabelRe.MatchString(line) && !hashtagsOnlyRe.MatchString(line) {
			return trimmed
		}
	}
	return strings.TrimSpace(strings.Join(blocks[:len(blocks)-1], "\n\n"))
}

// ApplyHashtags strips every inline hashtag from body. When saved is
// non-empty the saved tags are appended after a blank line and become the
// keywords; otherwise keywords are empty.
func ApplyHashtags(body string, saved []string) (string, []string) {
	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !hashtagRe.MatchString(line) {
			kept = append(kept, strings.TrimRight(line, " \t"))
			continue
		}
		line = hashtagRe.ReplaceAllString(line, "")
		line = strings.TrimRight(spacesRe.ReplaceAllString(line, " "), " \t,")
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}
	body = strings.TrimSpace(blankRunRe.ReplaceAllString(strings.Join(kept, "\n"), "\n\n"))

	if len(saved) == 0 {
		return body, []string{}
	}

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n\n")
	for _, tag := range saved {
		b.WriteString("#")
		b.WriteString(tag)
		b.WriteString(" ")
	}
	keywords := make([]string, len(saved))
	copy(keywords, saved)
	return b.String(), keywords
}

func removeFirstLine(text string, re *regexp.Regexp) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	end := loc[1]
	if end < len(text) && text[end] == '\n' {
		end++
	}
	return text[:loc[0]] + text[end:]
}

func cleanTitle(raw string) string {
	return strings.Trim(raw, " \t\"'*")
}

func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(p), "#"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
