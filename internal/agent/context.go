package agent

import (
	"fmt"
	"strings"
	"time"
)

// IST is the property's local timezone. A fixed offset avoids a tzdata
// dependency; India has no daylight saving.
var IST = time.FixedZone("IST", 5*3600+30*60)

// BuildContext renders the per-turn context block appended to the
// system prompt: today's date anchors, what we already know about the
// guest, and instructions on what to ask versus skip. It is pure so
// tests can pin the output for a fixed clock.
func BuildContext(phone, profileName string, facts map[string]string, now time.Time) string {
	var b strings.Builder

	b.WriteString(dateContext(now.In(IST)))
	b.WriteString("\n**CURRENT USER CONTEXT:**\n")
	fmt.Fprintf(&b, "- WhatsApp number: %s\n", phone)
	if profileName != "" {
		fmt.Fprintf(&b, "- WhatsApp profile name: %s\n", profileName)
	}
	if name := facts["name"]; name != "" {
		fmt.Fprintf(&b, "- Confirmed name: %s\n", name)
	}
	if confirmed := facts["phone"]; confirmed != "" {
		fmt.Fprintf(&b, "- Confirmed contact number: %s\n", confirmed)
	}
	for key, value := range facts {
		if key == "name" || key == "phone" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", key, value)
	}

	b.WriteString("\n**INSTRUCTIONS:**\n")
	if facts["name"] != "" {
		b.WriteString("- You already know the guest's name. Do not ask for it again.\n")
	} else if profileName != "" {
		fmt.Fprintf(&b, "- The WhatsApp profile name is %q. When a booking needs a name, ask the guest to confirm it rather than asking from scratch.\n", profileName)
	} else {
		b.WriteString("- Ask for the guest's name when a booking or inquiry needs it.\n")
	}
	if facts["phone"] != "" {
		b.WriteString("- You already have a confirmed contact number. Do not ask for it again.\n")
	} else {
		b.WriteString("- When a contact number is needed, ask whether this WhatsApp number works or they prefer another.\n")
	}

	return b.String()
}

// dateContext anchors relative dates so the planner converts phrases
// like "this weekend" correctly.
func dateContext(now time.Time) string {
	var b strings.Builder

	tomorrow := now.AddDate(0, 0, 1)
	dayAfter := now.AddDate(0, 0, 2)
	saturday := now.AddDate(0, 0, daysUntilSaturday(now))
	sunday := saturday.AddDate(0, 0, 1)

	b.WriteString("**CURRENT DATE CONTEXT:**\n")
	fmt.Fprintf(&b, "- Today is %s (%s IST)\n", now.Format("Monday, 02 January 2006"), now.Format("15:04"))
	fmt.Fprintf(&b, "- Tomorrow is %s\n", tomorrow.Format("Monday, 02 January 2006"))
	fmt.Fprintf(&b, "- Day after tomorrow is %s\n", dayAfter.Format("Monday, 02 January 2006"))
	fmt.Fprintf(&b, "- Next weekend is %s and %s\n",
		saturday.Format("Saturday, 02 January 2006"),
		sunday.Format("Sunday, 02 January 2006"))

	b.WriteString(`
**CRITICAL DATE RULES:**
- Resolve relative dates (today, tomorrow, this weekend) against the dates above, never against your training data.
- Dates passed to tools are DD/MM/YYYY.
- Never book dates in the past. If a guest asks for a past date, point it out and ask again.
`)

	return b.String()
}

// daysUntilSaturday returns days from now to the coming Saturday,
// treating a Saturday "today" as next week's.
func daysUntilSaturday(now time.Time) int {
	// Monday=0 .. Sunday=6 indexing.
	weekday := (int(now.Weekday()) + 6) % 7
	days := ((5 - weekday) % 7 + 7) % 7
	if days == 0 {
		days = 7
	}
	return days
}
