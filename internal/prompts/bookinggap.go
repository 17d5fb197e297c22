package prompts

import (
	"fmt"
	"strings"
)

// BookingGap is an unbooked date range, optionally with an offer.
type BookingGap struct {
	StartDate    string `json:"startDate" validate:"required,max=40"`
	EndDate      string `json:"endDate" validate:"required,max=40"`
	SpecialOffer string `json:"specialOffer,omitempty" validate:"max=200"`
}

// Template is a fully rendered result that needs no model call.
type Template struct {
	Title    string
	Body     string
	Keywords []string
}

var gapPhrases = []string{
	"fully equipped kitchen",
	"fast Wi-Fi",
	"fresh linens",
	"self check-in",
}

var gapKeywords = []string{"available", "last minute", "getaway", "book now", "vacation rental"}

const gapHashtags = "#LastMinuteGetaway #BookDirect"

// RenderBookingGap renders the fixed booking-gap announcement. The output
// depends only on gap.
func RenderBookingGap(gap BookingGap) Template {
	start := strings.TrimSpace(gap.StartDate)
	end := strings.TrimSpace(gap.EndDate)

	var b strings.Builder
	fmt.Fprintf(&b, "%s to %s - our place just opened up! ", start, end)
	if offer := strings.TrimSpace(gap.SpecialOffer); offer != "" {
		fmt.Fprintf(&b, "Book these dates and get %s. ", offer)
	}
	fmt.Fprintf(&b, "You'll have a %s, so all you need to bring is yourself. ", strings.Join(gapPhrases, ", "))
	b.WriteString("Message us to grab the dates before they're gone.")
	b.WriteString("\n\n")
	b.WriteString(gapHashtags)

	keywords := make([]string, len(gapKeywords))
	copy(keywords, gapKeywords)
	return Template{
		Title:    fmt.Sprintf("Available: %s - %s", start, end),
		Body:     b.String(),
		Keywords: keywords,
	}
}
