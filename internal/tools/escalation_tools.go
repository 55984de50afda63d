package tools

import (
	"context"
	"fmt"
	"strings"
)

// Escalation tools don't hit the booking backend. They package the
// request as an email to the property team and confirm to the guest
// that someone will follow up.

func (r *Registry) handleEventInquiry(ctx context.Context, args map[string]any) *Result {
	name, ok := stringArg(args, "name")
	if !ok {
		return Fail("name is required")
	}
	phone, ok := stringArg(args, "phone_number")
	if !ok {
		return Fail("phone_number is required")
	}
	purpose, ok := stringArg(args, "purpose")
	if !ok {
		return Fail("purpose is required")
	}
	people, ok := intArg(args, "num_of_people")
	if !ok {
		return Fail("num_of_people is required")
	}
	start, ok := stringArg(args, "starting_date")
	if !ok {
		return Fail("starting_date is required")
	}
	end, ok := stringArg(args, "end_date")
	if !ok {
		return Fail("end_date is required")
	}

	body := escalationBody("New event inquiry", [][2]string{
		{"Name", name},
		{"Phone", phone},
		{"Purpose", purpose},
		{"Attendees", fmt.Sprintf("%d", people)},
		{"Dates", start + " to " + end},
	})

	if err := r.escalate(ctx, fmt.Sprintf("Event inquiry: %s (%s)", purpose, name), body); err != nil {
		return Fail("record event inquiry: %s", err)
	}
	return Ok(nil, "Event inquiry recorded. The team will reach out to discuss details.")
}

func (r *Registry) handleLeadGen(ctx context.Context, args map[string]any) *Result {
	name, ok := stringArg(args, "name")
	if !ok {
		return Fail("name is required")
	}
	phone, ok := stringArg(args, "phone_number")
	if !ok {
		return Fail("phone_number is required")
	}
	leadType, _ := stringArg(args, "type_of_lead")
	if leadType == "" {
		leadType = "ROOM_BOOKING"
	}

	body := escalationBody("New lead", [][2]string{
		{"Name", name},
		{"Phone", phone},
		{"Interested in", leadType},
	})

	if err := r.escalate(ctx, fmt.Sprintf("Lead: %s (%s)", name, leadType), body); err != nil {
		return Fail("record lead: %s", err)
	}
	return Ok(nil, "Lead recorded.")
}

func (r *Registry) handleHumanFollowup(ctx context.Context, args map[string]any) *Result {
	name, ok := stringArg(args, "name")
	if !ok {
		return Fail("name is required")
	}
	phone, ok := stringArg(args, "phone_number")
	if !ok {
		return Fail("phone_number is required")
	}
	purpose, ok := stringArg(args, "purpose")
	if !ok {
		return Fail("purpose is required")
	}
	when, ok := stringArg(args, "schedule_time")
	if !ok {
		return Fail("schedule_time is required")
	}

	body := escalationBody("Callback requested", [][2]string{
		{"Name", name},
		{"Phone", phone},
		{"Purpose", purpose},
		{"Preferred time", when},
	})

	if err := r.escalate(ctx, fmt.Sprintf("Callback request from %s", name), body); err != nil {
		return Fail("request callback: %s", err)
	}
	return Ok(nil, "Callback scheduled. Someone from the team will call at the requested time.")
}

func (r *Registry) handleUpdateOrCancel(ctx context.Context, args map[string]any) *Result {
	name, ok := stringArg(args, "customer_name")
	if !ok {
		return Fail("customer_name is required")
	}
	phone, ok := stringArg(args, "customer_phone")
	if !ok {
		return Fail("customer_phone is required")
	}
	bookingType, ok := stringArg(args, "booking_type")
	if !ok {
		return Fail("booking_type is required")
	}
	requestType, ok := stringArg(args, "request_type")
	if !ok {
		return Fail("request_type is required")
	}
	details, ok := stringArg(args, "request_details")
	if !ok {
		return Fail("request_details is required")
	}

	switch bookingType {
	case "room-booking", "event-enquiry":
	default:
		return Fail("booking_type must be room-booking or event-enquiry, got %q", bookingType)
	}
	switch requestType {
	case "cancel", "update":
	default:
		return Fail("request_type must be cancel or update, got %q", requestType)
	}

	body := escalationBody(titleWord(requestType)+" request", [][2]string{
		{"Name", name},
		{"Phone", phone},
		{"Booking type", bookingType},
		{"Request", requestType},
		{"Details", details},
	})

	subject := fmt.Sprintf("%s request: %s (%s)", titleWord(requestType), name, bookingType)
	if err := r.escalate(ctx, subject, body); err != nil {
		return Fail("file %s request: %s", requestType, err)
	}
	return Ok(nil, fmt.Sprintf("Your %s request has been passed to the team. They'll confirm on this number.", requestType))
}

func (r *Registry) escalate(ctx context.Context, subject, body string) error {
	if r.notifier == nil || r.ownerEmail == "" {
		return fmt.Errorf("escalation notifications not configured")
	}
	return r.notifier.Notify(ctx, r.ownerEmail, subject, body)
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// escalationBody formats a field list as a markdown email body.
func escalationBody(heading string, fields [][2]string) string {
	var b strings.Builder
	b.WriteString("## " + heading + "\n\n")
	for _, f := range fields {
		fmt.Fprintf(&b, "**%s:** %s\n\n", f[0], f[1])
	}
	return b.String()
}
