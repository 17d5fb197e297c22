package prompts

import (
	"fmt"
	"strings"

	"hostprompt/internal/storage"
)

// ComposeEdit builds the prompt for rewriting existing text per a free-text
// instruction from the host.
func ComposeEdit(content, instruction string, contentType storage.ContentType, property storage.Property) Prompt {
	var sys strings.Builder
	sys.WriteString(baseSystem)
	sys.WriteString("\n\nYou are editing text the host already has. Apply the instruction and keep ")
	sys.WriteString("everything it does not ask you to change. Return only the edited text.")
	if v := strings.TrimSpace(property.BrandVoice); v != "" {
		fmt.Fprintf(&sys, "\n\nBrand voice to keep: %q.", v)
		if s := strings.TrimSpace(property.BrandVoiceSummary); s != "" {
			fmt.Fprintf(&sys, " In the host's words: %q.", s)
		}
	}
	sys.WriteString("\n\n")
	sys.WriteString(forbiddenInstruction())

	var user strings.Builder
	if contentType.Valid() {
		fmt.Fprintf(&user, "Content type: %s\n", contentType.Label())
	}
	if property.Name != "" {
		fmt.Fprintf(&user, "Property: %s\n", property.Name)
	}
	fmt.Fprintf(&user, "\nINSTRUCTION:\n%s\n\nTEXT:\n%s", strings.TrimSpace(instruction), strings.TrimSpace(content))

	return Prompt{System: sys.String(), User: user.String()}
}
