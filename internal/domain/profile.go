package domain

import "strings"

// BookingProfile carries the lead's qualification answers. The answers are
// passed through to the external scheduler unmodified; only the name is
// decomposed (see SplitName).
type BookingProfile struct {
	Name          string
	Email         string
	Phone         string
	Based         string
	OtherBased    string
	Occupation    string
	MonthlyIncome string
	Willingness   string
	Message       string
	Consent       bool
	Timezone      string
}

// QuestionAnswer is one qualification answer mapped to a fixed provider
// question slot.
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

// QuestionAnswers maps the profile onto the provider's question slots in a
// stable order.
func (p BookingProfile) QuestionAnswers() []QuestionAnswer {
	based := p.Based
	if based == "" {
		based = p.OtherBased
	}
	return []QuestionAnswer{
		{Question: "Phone Number", Answer: p.Phone, Position: 0},
		{Question: "Where are you based?", Answer: based, Position: 1},
		{Question: "What do you do for a living?", Answer: p.Occupation, Position: 2},
		{Question: "What is your current monthly income?", Answer: p.MonthlyIncome, Position: 3},
		{Question: "How much are you willing to invest?", Answer: p.Willingness, Position: 4},
	}
}

// lowIntentPrefixes marks willingness tiers that disqualify a lead from
// booking a call.
var lowIntentPrefixes = []string{"$0-$499", "$500-$999"}

// LowIntent reports whether the willingness answer falls into a
// disqualifying tier.
func (p BookingProfile) LowIntent() bool {
	for _, prefix := range lowIntentPrefixes {
		if strings.HasPrefix(p.Willingness, prefix) {
			return true
		}
	}
	return false
}

const fallbackLastName = "NotProvided"

// SplitName derives non-empty first/last name components for the provider,
// which rejects blank fields. A single-token name becomes the first name
// with the email local-part (or a placeholder) as last name.
func SplitName(name, email string) (first, last string) {
	name = strings.TrimSpace(name)
	local := emailLocalPart(email)

	switch {
	case name == "":
		first = local
		last = fallbackLastName
	case strings.ContainsAny(name, " \t"):
		parts := strings.Fields(name)
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	default:
		first = name
		last = local
	}

	if first == "" {
		first = "Attendee"
	}
	if last == "" {
		last = fallbackLastName
	}
	return first, last
}

func emailLocalPart(email string) string {
	if email == "" {
		return ""
	}
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
