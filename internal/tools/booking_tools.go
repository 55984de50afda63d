package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/setusher/Maldevta-farms/internal/travelstudio"
)

func (r *Registry) handleCheckAvailability(ctx context.Context, args map[string]any) *Result {
	if r.backend == nil {
		return Fail("booking backend not configured")
	}

	checkIn, ok := stringArg(args, "check_in")
	if !ok {
		return Fail("check_in is required")
	}
	checkOut, ok := stringArg(args, "check_out")
	if !ok {
		return Fail("check_out is required")
	}
	adults, ok := intArg(args, "num_of_adults")
	if !ok {
		return Fail("num_of_adults is required")
	}
	if _, ok := intArg(args, "num_of_rooms"); !ok {
		return Fail("num_of_rooms is required")
	}
	children, _ := intArg(args, "num_of_children")

	req := travelstudio.AvailabilityRequest{
		CheckInDate:  ToISODate(checkIn),
		CheckOutDate: ToISODate(checkOut),
		NumAdults:    adults,
		NumChildren:  children,
	}
	if category, ok := stringArg(args, "room_type_id"); ok {
		req.Category = category
	}

	rooms, err := r.backend.AvailableRooms(ctx, req)
	if err != nil {
		return Fail("check availability: %s", err)
	}

	if budget, ok := floatArg(args, "budget"); ok && budget > 0 {
		rooms = withinBudget(rooms, budget)
	}

	if len(rooms) == 0 {
		return Ok(rooms, fmt.Sprintf("No rooms available from %s to %s.", checkIn, checkOut))
	}

	byCategory := make(map[string]int)
	for _, room := range rooms {
		byCategory[room.Category]++
	}
	var parts []string
	for category, count := range byCategory {
		parts = append(parts, fmt.Sprintf("%d %s", count, category))
	}

	return Ok(rooms, fmt.Sprintf("%d rooms available from %s to %s: %s",
		len(rooms), checkIn, checkOut, strings.Join(parts, ", ")))
}

// withinBudget drops rooms whose nightly rate exceeds the guest's
// budget. Rooms with an unparseable rate are kept rather than hidden.
func withinBudget(rooms []travelstudio.Room, budget float64) []travelstudio.Room {
	kept := make([]travelstudio.Room, 0, len(rooms))
	for _, room := range rooms {
		rate, err := strconv.ParseFloat(room.BaseRate, 64)
		if err == nil && rate > budget {
			continue
		}
		kept = append(kept, room)
	}
	return kept
}

func (r *Registry) handleCreateBooking(ctx context.Context, args map[string]any) *Result {
	if r.backend == nil {
		return Fail("booking backend not configured")
	}

	name, ok := stringArg(args, "name")
	if !ok {
		return Fail("name is required")
	}
	phone, ok := stringArg(args, "phone_number")
	if !ok {
		return Fail("phone_number is required")
	}
	checkIn, ok := stringArg(args, "check_in")
	if !ok {
		return Fail("check_in is required")
	}
	checkOut, ok := stringArg(args, "check_out")
	if !ok {
		return Fail("check_out is required")
	}
	adults, ok := intArg(args, "num_of_adults")
	if !ok {
		return Fail("num_of_adults is required")
	}
	roomTypes := stringSliceArg(args, "room_type_ids")
	if len(roomTypes) == 0 {
		return Fail("room_type_ids is required")
	}

	children, _ := intArg(args, "num_of_children")
	special, _ := stringArg(args, "special_request")

	req := travelstudio.BookingRequest{
		GuestName:       name,
		GuestPhone:      phone,
		RoomCategory:    roomTypes[0],
		NumAdults:       adults,
		NumChildren:     children,
		CheckInDate:     ToISODate(checkIn),
		CheckOutDate:    ToISODate(checkOut),
		SpecialRequests: special,
	}

	booking, err := r.backend.CreateBooking(ctx, req)
	if err != nil {
		return Fail("create booking: %s", err)
	}

	msg := fmt.Sprintf("Booking %s confirmed for %s, %s to %s (%d nights).",
		booking.BookingID, booking.GuestName, checkIn, checkOut, booking.NumNights)
	if booking.PaymentLink != "" {
		msg += " Payment link: " + booking.PaymentLink
	}
	return Ok(booking, msg)
}

// propertyInfo is the static property fact sheet handed to the planner.
var propertyInfo = map[string]any{
	"name":     "Maldevta Farms",
	"location": "Maldevta, Raipur Road, Dehradun, Uttarakhand",
	"amenities": []string{
		"riverside lawns",
		"bonfire",
		"in-house restaurant",
		"nature walks",
		"farm tours",
		"event spaces",
	},
	"check_in_time":  "2:00 PM",
	"check_out_time": "11:00 AM",
	"room_types":     []string{"Deluxe", "Luxury Cottage", "Basic"},
	"policies": map[string]any{
		"pets":         "Pets are allowed on prior notice.",
		"cancellation": "Cancellations are handled by the team, share your booking details to request one.",
		"payment":      "Bookings are held as Unpaid until the payment link is settled.",
	},
}

func (r *Registry) handleGeneralInfo(ctx context.Context, args map[string]any) *Result {
	return Ok(propertyInfo, "")
}

func (r *Registry) handleAllReservations(ctx context.Context, args map[string]any) *Result {
	if r.backend == nil {
		return Fail("booking backend not configured")
	}

	bookings, err := r.backend.Bookings(ctx, travelstudio.BookingFilter{})
	if err != nil {
		return Fail("list reservations: %s", err)
	}
	return Ok(bookings, fmt.Sprintf("%d reservations found.", len(bookings)))
}

func (r *Registry) handleConfirmPayment(ctx context.Context, args map[string]any) *Result {
	if r.backend == nil {
		return Fail("booking backend not configured")
	}

	phone, ok := stringArg(args, "phone_number")
	if !ok {
		return Fail("phone_number is required")
	}

	bookings, err := r.backend.GuestBookings(ctx, phone)
	if err != nil {
		return Fail("look up bookings for %s: %s", phone, err)
	}
	if len(bookings) == 0 {
		return Ok(nil, fmt.Sprintf("No bookings found for %s.", phone))
	}

	type paymentStatus struct {
		BookingID     string `json:"booking_id"`
		PaymentStatus string `json:"payment_status"`
		PaymentLink   string `json:"payment_link,omitempty"`
	}
	statuses := make([]paymentStatus, 0, len(bookings))
	for _, b := range bookings {
		statuses = append(statuses, paymentStatus{
			BookingID:     b.BookingID,
			PaymentStatus: b.PaymentStatus,
			PaymentLink:   b.PaymentLink,
		})
	}
	return Ok(statuses, fmt.Sprintf("%d bookings found for %s.", len(bookings), phone))
}

// Argument accessors. JSON numbers arrive as float64; Sanitize coerces
// the known count keys to int before handlers run.

func stringArg(args map[string]any, key string) (string, bool) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		if s, ok := args[key].(string); ok && s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
