// Package travelstudio is the client for the Travel Studio booking backend.
package travelstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/setusher/Maldevta-farms/internal/httpkit"
)

// Backend is the booking-backend surface the tool handlers depend on.
type Backend interface {
	// AvailableRooms returns rooms free for the requested date range.
	AvailableRooms(ctx context.Context, req AvailabilityRequest) ([]Room, error)

	// CreateBooking creates a reservation and returns the created record.
	CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error)

	// Bookings lists bookings, optionally filtered.
	Bookings(ctx context.Context, filter BookingFilter) ([]Booking, error)

	// GuestBookings lists bookings made from one phone number.
	GuestBookings(ctx context.Context, phone string) ([]Booking, error)
}

// AvailabilityRequest asks for rooms free between two dates.
// Dates are YYYY-MM-DD; the client appends check-in/check-out times
// before hitting the wire.
type AvailabilityRequest struct {
	CheckInDate  string `json:"check_in_date"`
	CheckOutDate string `json:"check_out_date"`
	Category     string `json:"category,omitempty"`
	NumAdults    int    `json:"-"`
	NumChildren  int    `json:"-"`
}

// BookingRequest creates a reservation. Every field the backend accepts
// is enumerated here; nothing else is forwarded.
type BookingRequest struct {
	GuestName       string `json:"guest_name"`
	GuestPhone      string `json:"guest_phone"`
	GuestEmail      string `json:"guest_email"`
	RoomCategory    string `json:"room_category"`
	NumAdults       int    `json:"num_adults"`
	NumChildren     int    `json:"num_children"`
	CheckInDate     string `json:"check_in_date"`
	CheckOutDate    string `json:"check_out_date"`
	NumNights       int    `json:"num_nights"`
	BookingChannel  string `json:"booking_channel"`
	PaymentStatus   string `json:"payment_status"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// BookingFilter narrows a booking listing.
type BookingFilter struct {
	Status    string
	StartDate string
	EndDate   string
}

// Room is one physical room as the backend reports it.
type Room struct {
	ID           string `json:"id"`
	RoomNumber   string `json:"roomNumber"`
	Category     string `json:"category"`
	Floor        string `json:"floor,omitempty"`
	Wing         string `json:"wing,omitempty"`
	IsOccupiable bool   `json:"isOccupiable"`
	BaseRate     string `json:"base_rate"`
	Status       string `json:"status"`
}

// Booking is one reservation record.
type Booking struct {
	BookingID     string `json:"booking_id"`
	GuestName     string `json:"guest_name"`
	GuestPhone    string `json:"guest_phone"`
	GuestEmail    string `json:"guest_email,omitempty"`
	RoomCategory  string `json:"room_category"`
	NumAdults     int    `json:"num_adults"`
	NumChildren   int    `json:"num_children"`
	CheckInDate   string `json:"check_in_date"`
	CheckOutDate  string `json:"check_out_date"`
	NumNights     int    `json:"num_nights"`
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
	PaymentLink   string `json:"payment_link,omitempty"`
}

// Client talks to the Travel Studio HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Travel Studio client.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger.With("backend", "travelstudio"),
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(30 * time.Second),
		),
	}
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// items is the paged-list shape the backend uses for collections.
type items[T any] struct {
	Items []T `json:"items"`
}

// AvailableRooms returns rooms free for the requested date range.
func (c *Client) AvailableRooms(ctx context.Context, req AvailabilityRequest) ([]Room, error) {
	body := map[string]any{
		"check_in_date":  withCheckInTime(req.CheckInDate),
		"check_out_date": withCheckOutTime(req.CheckOutDate),
	}
	if req.Category != "" {
		body["category"] = req.Category
	}

	var rooms []Room
	if err := c.do(ctx, "POST", "/api/hocc/rooms/available", body, nil, &rooms); err != nil {
		return nil, err
	}

	c.logger.Debug("availability checked",
		"check_in", req.CheckInDate,
		"check_out", req.CheckOutDate,
		"rooms", len(rooms),
	)
	return rooms, nil
}

// CreateBooking creates a reservation.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	req.CheckInDate = withCheckInTime(req.CheckInDate)
	req.CheckOutDate = withCheckOutTime(req.CheckOutDate)
	if req.NumNights <= 0 {
		req.NumNights = nightsBetween(req.CheckInDate, req.CheckOutDate)
	}
	if req.BookingChannel == "" {
		req.BookingChannel = "whatsapp"
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = "Unpaid"
	}

	var booking Booking
	if err := c.do(ctx, "POST", "/api/hocc/bookings", req, nil, &booking); err != nil {
		return nil, err
	}

	c.logger.Info("booking created",
		"booking_id", booking.BookingID,
		"guest", req.GuestName,
		"check_in", req.CheckInDate,
	)
	return &booking, nil
}

// Bookings lists bookings, optionally filtered.
func (c *Client) Bookings(ctx context.Context, filter BookingFilter) ([]Booking, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.StartDate != "" {
		params.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		params.Set("end_date", filter.EndDate)
	}

	var page items[Booking]
	if err := c.do(ctx, "GET", "/api/hocc/bookings", nil, params, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GuestBookings lists bookings made from one phone number.
func (c *Client) GuestBookings(ctx context.Context, phone string) ([]Booking, error) {
	var page items[Booking]
	path := "/api/hocc/guests/phone/" + url.PathEscape(phone) + "/bookings"
	if err := c.do(ctx, "GET", path, nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// do performs one request and unwraps the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body any, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody := httpkit.ReadErrorBody(resp.Body, 4096)
		c.logger.Error("API error", "method", method, "path", path, "status", resp.StatusCode, "body", errBody)
		return fmt.Errorf("travel studio API error %d: %s", resp.StatusCode, errBody)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if env.Error == "" {
			env.Error = "request rejected"
		}
		return fmt.Errorf("travel studio: %s", env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// withCheckInTime appends the property's 2 PM check-in time to a bare
// YYYY-MM-DD date. Dates already carrying a time pass through.
func withCheckInTime(date string) string {
	if date == "" || strings.Contains(date, "T") {
		return date
	}
	return date + "T14:00:00.000Z"
}

// withCheckOutTime appends the 11 AM check-out time.
func withCheckOutTime(date string) string {
	if date == "" || strings.Contains(date, "T") {
		return date
	}
	return date + "T11:00:00.000Z"
}

func nightsBetween(checkIn, checkOut string) int {
	in, err := time.Parse(time.RFC3339, strings.Replace(checkIn, ".000Z", "Z", 1))
	if err != nil {
		return 1
	}
	out, err := time.Parse(time.RFC3339, strings.Replace(checkOut, ".000Z", "Z", 1))
	if err != nil {
		return 1
	}
	nights := int(out.Sub(in).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return nights
}
