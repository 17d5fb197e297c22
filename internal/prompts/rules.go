package prompts

import "hostprompt/internal/storage"

var rules = map[storage.ContentType]string{
	storage.ContentSocialCaption: "Social media caption rules: one or two short paragraphs, first line hooks " +
		"with something visible or felt, no emoji walls, no lists, no question-bait like \"Who's ready?\".",
	storage.ContentListingDescription: "Listing description rules: open with what makes the stay different, then " +
		"the layout and sleeping arrangements, then the surroundings. Full sentences, no bullet lists, no " +
		"capital-letter shouting.",
	storage.ContentWelcomeMessage: "Welcome message rules: address the guest directly, greet them, give the one " +
		"or two things they need on arrival, keep it personal and short. No sales language.",
	storage.ContentHouseRules: "House rules reminder rules: friendly but unambiguous, one rule per sentence, " +
		"explain briefly where a rule protects neighbours or the home. Never sound threatening.",
	storage.ContentGuestReengagement: "Guest re-engagement rules: write to a past guest, recall their stay in " +
		"general terms, mention what is new or seasonal, invite them back without pressure.",
	storage.ContentBookingGap: "Booking gap rules: announce specific open dates, say why those dates are " +
		"a good time to visit, keep it short and end with how to book.",
}

func ruleFor(ct storage.ContentType) string {
	if r, ok := rules[ct]; ok {
		return r
	}
	return rules[storage.ContentSocialCaption]
}
