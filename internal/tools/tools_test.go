package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/setusher/Maldevta-farms/internal/travelstudio"
)

// fakeBackend records calls and returns canned responses.
type fakeBackend struct {
	rooms    []travelstudio.Room
	booking  *travelstudio.Booking
	bookings []travelstudio.Booking
	err      error

	lastAvailability travelstudio.AvailabilityRequest
	lastBooking      travelstudio.BookingRequest
	lastGuestPhone   string
}

func (f *fakeBackend) AvailableRooms(ctx context.Context, req travelstudio.AvailabilityRequest) ([]travelstudio.Room, error) {
	f.lastAvailability = req
	return f.rooms, f.err
}

func (f *fakeBackend) CreateBooking(ctx context.Context, req travelstudio.BookingRequest) (*travelstudio.Booking, error) {
	f.lastBooking = req
	return f.booking, f.err
}

func (f *fakeBackend) Bookings(ctx context.Context, filter travelstudio.BookingFilter) ([]travelstudio.Booking, error) {
	return f.bookings, f.err
}

func (f *fakeBackend) GuestBookings(ctx context.Context, phone string) ([]travelstudio.Booking, error) {
	f.lastGuestPhone = phone
	return f.bookings, f.err
}

// fakeNotifier captures the last notification sent.
type fakeNotifier struct {
	recipient string
	subject   string
	body      string
	err       error
}

func (f *fakeNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	f.recipient = recipient
	f.subject = subject
	f.body = body
	return f.err
}

func newTestRegistry(t *testing.T, backend *fakeBackend, notifier *fakeNotifier) *Registry {
	t.Helper()
	r, err := NewRegistry(backend, notifier, "owner@maldevtafarms.com", nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func TestRegistryDeclaresAllTools(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{}, &fakeNotifier{})

	want := []string{
		"check_availability",
		"create_booking_reservation",
		"general_info",
		"get_all_room_reservations",
		"confirm_payment_details",
		"create_event_inquiry",
		"lead_gen",
		"human_followup",
		"request_update_or_cancel",
	}
	for _, name := range want {
		if r.Get(name) == nil {
			t.Errorf("tool %s not registered", name)
		}
	}
	if got := len(r.Names()); got != len(want) {
		t.Errorf("registry has %d tools, want %d", got, len(want))
	}
}

func TestDeclarationsWireFormat(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{}, &fakeNotifier{})

	decls := r.Declarations()
	if len(decls) != len(r.Names()) {
		t.Fatalf("got %d declarations, want %d", len(decls), len(r.Names()))
	}
	for _, d := range decls {
		if d["type"] != "function" {
			t.Errorf("declaration type = %v, want function", d["type"])
		}
		fn, ok := d["function"].(map[string]any)
		if !ok {
			t.Fatal("declaration missing function object")
		}
		for _, key := range []string{"name", "description", "parameters"} {
			if fn[key] == nil {
				t.Errorf("declaration %v missing %s", fn["name"], key)
			}
		}
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{}, &fakeNotifier{})

	res := r.Execute(context.Background(), "no_such_tool", nil)
	if res.Success {
		t.Error("unknown tool should fail")
	}
	if !strings.Contains(res.Error, "unknown tool") {
		t.Errorf("error = %q, want unknown tool mention", res.Error)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{}, &fakeNotifier{})
	r.register(&Tool{
		Name:       "exploding",
		Parameters: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) *Result {
			panic("boom")
		},
	})

	res := r.Execute(context.Background(), "exploding", nil)
	if res.Success {
		t.Error("panicking handler should produce a failed result")
	}
	if res.Error == "" {
		t.Error("failed result should carry an error")
	}
}

func TestCheckAvailability(t *testing.T) {
	backend := &fakeBackend{rooms: []travelstudio.Room{
		{ID: "r1", Category: "Deluxe"},
		{ID: "r2", Category: "Deluxe"},
		{ID: "r3", Category: "Luxury Cottage"},
	}}
	r := newTestRegistry(t, backend, &fakeNotifier{})

	res := r.Execute(context.Background(), "check_availability", map[string]any{
		"check_in":      "25/12/2025",
		"check_out":     "27/12/2025",
		"num_of_adults": float64(2),
		"num_of_rooms":  float64(1),
	})
	if !res.Success {
		t.Fatalf("check_availability failed: %s", res.Error)
	}
	if backend.lastAvailability.CheckInDate != "2025-12-25" {
		t.Errorf("check-in sent as %q, want ISO date", backend.lastAvailability.CheckInDate)
	}
	if backend.lastAvailability.CheckOutDate != "2025-12-27" {
		t.Errorf("check-out sent as %q, want ISO date", backend.lastAvailability.CheckOutDate)
	}
	if !strings.Contains(res.Message, "3 rooms available") {
		t.Errorf("message = %q, want room count", res.Message)
	}
}

func TestCheckAvailabilityBudgetFilter(t *testing.T) {
	backend := &fakeBackend{rooms: []travelstudio.Room{
		{ID: "r1", Category: "Basic", BaseRate: "6500"},
		{ID: "r2", Category: "Deluxe", BaseRate: "9000"},
		{ID: "r3", Category: "Luxury Cottage", BaseRate: "15000"},
		{ID: "r4", Category: "Deluxe", BaseRate: ""}, // unknown rate stays visible
	}}
	r := newTestRegistry(t, backend, &fakeNotifier{})

	res := r.Execute(context.Background(), "check_availability", map[string]any{
		"check_in":      "25/12/2025",
		"check_out":     "27/12/2025",
		"num_of_adults": float64(2),
		"num_of_rooms":  float64(1),
		"budget":        float64(10000),
	})
	if !res.Success {
		t.Fatalf("check_availability failed: %s", res.Error)
	}
	rooms, ok := res.Data.([]travelstudio.Room)
	if !ok {
		t.Fatal("data should be the room slice")
	}
	if len(rooms) != 3 {
		t.Fatalf("got %d rooms, want the cottage filtered out", len(rooms))
	}
	for _, room := range rooms {
		if room.ID == "r3" {
			t.Error("room over budget survived the filter")
		}
	}
}

func TestCheckAvailabilityMissingArgs(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{}, &fakeNotifier{})

	res := r.Execute(context.Background(), "check_availability", map[string]any{
		"check_in": "25/12/2025",
	})
	if res.Success {
		t.Error("missing required args should fail")
	}
}

func TestCreateBooking(t *testing.T) {
	backend := &fakeBackend{booking: &travelstudio.Booking{
		BookingID:   "BK-1001",
		GuestName:   "Anita Rawat",
		NumNights:   2,
		PaymentLink: "https://pay.example/BK-1001",
	}}
	r := newTestRegistry(t, backend, &fakeNotifier{})

	res := r.Execute(context.Background(), "create_booking_reservation", map[string]any{
		"name":          "Anita Rawat",
		"age":           float64(34),
		"check_in":      "25/12/2025",
		"check_out":     "27/12/2025",
		"num_of_adults": float64(2),
		"phone_number":  "+919876543210",
		"room_type_ids": []any{"Deluxe"},
	})
	if !res.Success {
		t.Fatalf("create_booking_reservation failed: %s", res.Error)
	}
	if backend.lastBooking.GuestName != "Anita Rawat" {
		t.Errorf("guest name = %q", backend.lastBooking.GuestName)
	}
	if backend.lastBooking.RoomCategory != "Deluxe" {
		t.Errorf("room category = %q", backend.lastBooking.RoomCategory)
	}
	if backend.lastBooking.CheckInDate != "2025-12-25" {
		t.Errorf("check-in = %q, want ISO date", backend.lastBooking.CheckInDate)
	}
	if !strings.Contains(res.Message, "BK-1001") {
		t.Errorf("message = %q, want booking id", res.Message)
	}
	if !strings.Contains(res.Message, "https://pay.example/BK-1001") {
		t.Errorf("message = %q, want payment link", res.Message)
	}
}

func TestCreateBookingBackendError(t *testing.T) {
	backend := &fakeBackend{err: fmt.Errorf("rooms sold out")}
	r := newTestRegistry(t, backend, &fakeNotifier{})

	res := r.Execute(context.Background(), "create_booking_reservation", map[string]any{
		"name":          "Anita Rawat",
		"age":           float64(34),
		"check_in":      "25/12/2025",
		"check_out":     "27/12/2025",
		"num_of_adults": float64(2),
		"phone_number":  "+919876543210",
		"room_type_ids": []any{"Deluxe"},
	})
	if res.Success {
		t.Error("backend error should fail the tool")
	}
	if !strings.Contains(res.Error, "sold out") {
		t.Errorf("error = %q, want backend error", res.Error)
	}
}

func TestGeneralInfo(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{}, &fakeNotifier{})

	res := r.Execute(context.Background(), "general_info", nil)
	if !res.Success {
		t.Fatalf("general_info failed: %s", res.Error)
	}
	info, ok := res.Data.(map[string]any)
	if !ok {
		t.Fatal("general_info data should be a map")
	}
	if info["name"] != "Maldevta Farms" {
		t.Errorf("property name = %v", info["name"])
	}
	if info["check_in_time"] != "2:00 PM" {
		t.Errorf("check_in_time = %v", info["check_in_time"])
	}
}

func TestConfirmPaymentDetails(t *testing.T) {
	backend := &fakeBackend{bookings: []travelstudio.Booking{
		{BookingID: "BK-1001", PaymentStatus: "Unpaid", PaymentLink: "https://pay.example/BK-1001"},
	}}
	r := newTestRegistry(t, backend, &fakeNotifier{})

	res := r.Execute(context.Background(), "confirm_payment_details", map[string]any{
		"phone_number": "+919876543210",
	})
	if !res.Success {
		t.Fatalf("confirm_payment_details failed: %s", res.Error)
	}
	if backend.lastGuestPhone != "+919876543210" {
		t.Errorf("looked up phone %q", backend.lastGuestPhone)
	}
}

func TestEscalationToolsNotifyOwner(t *testing.T) {
	tests := []struct {
		tool string
		args map[string]any
		want string // substring expected in the email body
	}{
		{
			tool: "create_event_inquiry",
			args: map[string]any{
				"name":          "Rohit Negi",
				"age":           float64(29),
				"num_of_people": float64(40),
				"purpose":       "corporate retreat",
				"starting_date": "10/01/2026",
				"end_date":      "12/01/2026",
				"phone_number":  "+919812345678",
			},
			want: "corporate retreat",
		},
		{
			tool: "lead_gen",
			args: map[string]any{
				"name":         "Rohit Negi",
				"phone_number": "+919812345678",
				"type_of_lead": "DINING",
			},
			want: "DINING",
		},
		{
			tool: "human_followup",
			args: map[string]any{
				"name":          "Rohit Negi",
				"phone_number":  "+919812345678",
				"purpose":       "group discount",
				"schedule_time": "tomorrow morning",
			},
			want: "group discount",
		},
		{
			tool: "request_update_or_cancel",
			args: map[string]any{
				"customer_name":   "Rohit Negi",
				"customer_phone":  "+919812345678",
				"booking_type":    "room-booking",
				"request_type":    "cancel",
				"request_details": "trip postponed",
			},
			want: "trip postponed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			notifier := &fakeNotifier{}
			r := newTestRegistry(t, &fakeBackend{}, notifier)

			res := r.Execute(context.Background(), tt.tool, tt.args)
			if !res.Success {
				t.Fatalf("%s failed: %s", tt.tool, res.Error)
			}
			if notifier.recipient != "owner@maldevtafarms.com" {
				t.Errorf("notified %q, want owner address", notifier.recipient)
			}
			if !strings.Contains(notifier.body, tt.want) {
				t.Errorf("email body missing %q:\n%s", tt.want, notifier.body)
			}
		})
	}
}

func TestUpdateOrCancelRejectsBadEnums(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{}, &fakeNotifier{})

	res := r.Execute(context.Background(), "request_update_or_cancel", map[string]any{
		"customer_name":   "Rohit Negi",
		"customer_phone":  "+919812345678",
		"booking_type":    "spa-visit",
		"request_type":    "cancel",
		"request_details": "x",
	})
	if res.Success {
		t.Error("invalid booking_type should fail")
	}
}

func TestEscalationNotifierFailure(t *testing.T) {
	notifier := &fakeNotifier{err: fmt.Errorf("smtp down")}
	r := newTestRegistry(t, &fakeBackend{}, notifier)

	res := r.Execute(context.Background(), "lead_gen", map[string]any{
		"name":         "Rohit Negi",
		"phone_number": "+919812345678",
	})
	if res.Success {
		t.Error("notifier failure should fail the tool")
	}
}

func TestMarshalResult(t *testing.T) {
	s := MarshalResult(Ok(map[string]any{"rooms": 3}, "3 rooms"))
	if !strings.Contains(s, `"success":true`) {
		t.Errorf("marshaled result = %s", s)
	}
	if !strings.Contains(s, `"rooms":3`) {
		t.Errorf("marshaled result = %s", s)
	}
}
