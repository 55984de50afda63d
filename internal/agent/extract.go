package agent

import (
	"regexp"
	"strings"
)

// Fact is one durable thing learned about a guest from a message.
type Fact struct {
	Key   string
	Value string
}

// FactExtractor pulls durable guest facts out of an inbound message.
// Implementations must be side-effect free; the orchestrator persists
// whatever comes back.
type FactExtractor interface {
	Extract(text string, existing map[string]string, senderPhone, profileName string) []Fact
}

// HeuristicExtractor recognizes the handful of phrasings guests
// actually use to confirm names and phone numbers. It never guesses:
// a miss just means the planner asks again.
type HeuristicExtractor struct{}

var phoneConfirmPhrases = []string{
	"whatsapp is fine",
	"same number",
	"whatsapp number",
	"this number",
	"yes use whatsapp",
}

var nameConfirmPhrases = []string{
	"yes",
	"correct",
	"that's right",
	"fine",
	"ok",
	"use that",
}

var phonePattern = regexp.MustCompile(`\+?\d{10,13}`)

// Words that start sentences after "i am" but are never names.
var notNames = map[string]bool{
	"the":  true,
	"a":    true,
	"an":   true,
	"from": true,
	"at":   true,
}

func (HeuristicExtractor) Extract(text string, existing map[string]string, senderPhone, profileName string) []Fact {
	var facts []Fact
	lower := strings.ToLower(strings.TrimSpace(text))

	// Phone: explicit confirmation of the WhatsApp number itself. Only
	// fills a gap; a number already on file stays until the guest types
	// a different one outright.
	confirmed := false
	for _, phrase := range phoneConfirmPhrases {
		if strings.Contains(lower, phrase) {
			if existing["phone"] == "" {
				facts = append(facts, Fact{Key: "phone", Value: senderPhone})
			}
			confirmed = true
			break
		}
	}

	// Phone: a different number typed out. Skipped when the message
	// mentions WhatsApp, since that usually means "use this one".
	if !confirmed && !strings.Contains(lower, "whatsapp") {
		if match := phonePattern.FindString(text); match != "" && match != senderPhone {
			facts = append(facts, Fact{Key: "phone", Value: match})
		}
	}

	// Name: short confirmation of the profile name we showed back.
	if profileName != "" && existing["name"] == "" && len(strings.Fields(lower)) < 5 {
		for _, phrase := range nameConfirmPhrases {
			if strings.Contains(lower, phrase) {
				facts = append(facts, Fact{Key: "name", Value: profileName})
				break
			}
		}
	}

	// Name: stated outright.
	if name := statedName(lower); name != "" {
		facts = append(facts, Fact{Key: "name", Value: name})
	}

	return facts
}

// statedName extracts a name from "my name is X", "i am X", or "i'm X".
func statedName(lower string) string {
	for _, marker := range []string{"my name is ", "i am ", "i'm "} {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := strings.Fields(lower[idx+len(marker):])
		if len(rest) == 0 {
			continue
		}
		word := strings.Trim(rest[0], ".,!?")
		if word == "" || notNames[word] {
			continue
		}
		return strings.ToUpper(word[:1]) + word[1:]
	}
	return ""
}
