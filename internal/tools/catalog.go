package tools

func (r *Registry) registerBuiltins() {
	r.register(&Tool{
		Name:        "check_availability",
		Description: "Check room availability at Maldevta Farms for a date range. Use before quoting rooms or rates.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"check_in": map[string]any{
					"type":        "string",
					"description": "Check-in date in DD/MM/YYYY format",
				},
				"check_out": map[string]any{
					"type":        "string",
					"description": "Check-out date in DD/MM/YYYY format",
				},
				"num_of_adults": map[string]any{
					"type":        "integer",
					"description": "Number of adult guests",
				},
				"num_of_rooms": map[string]any{
					"type":        "integer",
					"description": "Number of rooms requested",
				},
				"num_of_children": map[string]any{
					"type":        "integer",
					"description": "Number of children (optional)",
				},
				"room_type_id": map[string]any{
					"type":        "string",
					"description": "Room category to filter by, e.g. Deluxe, Luxury Cottage, Basic (optional)",
				},
				"budget": map[string]any{
					"type":        "number",
					"description": "Guest's budget per night in INR (optional)",
				},
			},
			"required": []string{"check_in", "check_out", "num_of_adults", "num_of_rooms"},
		},
		Handler: r.handleCheckAvailability,
	})

	r.register(&Tool{
		Name:        "create_booking_reservation",
		Description: "Create a room booking reservation. Only call after the guest has confirmed all details: name, dates, guest counts, and room type.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Full name of the primary guest",
				},
				"age": map[string]any{
					"type":        "integer",
					"description": "Age of the primary guest",
				},
				"check_in": map[string]any{
					"type":        "string",
					"description": "Check-in date in DD/MM/YYYY format",
				},
				"check_out": map[string]any{
					"type":        "string",
					"description": "Check-out date in DD/MM/YYYY format",
				},
				"num_of_adults": map[string]any{
					"type":        "integer",
					"description": "Number of adult guests",
				},
				"phone_number": map[string]any{
					"type":        "string",
					"description": "Guest's contact phone number",
				},
				"room_type_ids": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Room categories to book, one entry per room",
				},
				"num_of_children": map[string]any{
					"type":        "integer",
					"description": "Number of children (optional)",
				},
				"rate_plan_id": map[string]any{
					"type":        "string",
					"enum":        []string{"ROM", "ROB", "RBL"},
					"description": "Rate plan: ROM room only, ROB room with breakfast, RBL room with breakfast and lunch or dinner (optional)",
				},
				"booking_amt_type": map[string]any{
					"type":        "string",
					"description": "How the booking amount is collected (optional)",
				},
				"num_of_rooms": map[string]any{
					"type":        "integer",
					"description": "Number of rooms (optional, defaults to length of room_type_ids)",
				},
				"extra_guest": map[string]any{
					"type":        "integer",
					"description": "Extra guests beyond base occupancy (optional)",
				},
				"special_request": map[string]any{
					"type":        "string",
					"description": "Any special requests from the guest (optional)",
				},
			},
			"required": []string{"name", "age", "check_in", "check_out", "num_of_adults", "phone_number", "room_type_ids"},
		},
		Handler: r.handleCreateBooking,
	})

	r.register(&Tool{
		Name:        "general_info",
		Description: "Get general information about Maldevta Farms: location, amenities, room types, check-in and check-out times, and policies.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleGeneralInfo,
	})

	r.register(&Tool{
		Name:        "get_all_room_reservations",
		Description: "List all current room reservations. Use when the guest asks about an existing booking and you need to look it up.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: r.handleAllReservations,
	})

	r.register(&Tool{
		Name:        "confirm_payment_details",
		Description: "Look up payment status and payment link for a guest's bookings by phone number.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"phone_number": map[string]any{
					"type":        "string",
					"description": "Phone number the booking was made with",
				},
			},
			"required": []string{"phone_number"},
		},
		Handler: r.handleConfirmPayment,
	})

	r.register(&Tool{
		Name:        "create_event_inquiry",
		Description: "Record an event inquiry (weddings, corporate retreats, parties) and notify the property team.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Name of the person making the inquiry",
				},
				"age": map[string]any{
					"type":        "integer",
					"description": "Age of the person making the inquiry",
				},
				"num_of_people": map[string]any{
					"type":        "integer",
					"description": "Expected number of attendees",
				},
				"purpose": map[string]any{
					"type":        "string",
					"description": "Purpose of the event",
				},
				"starting_date": map[string]any{
					"type":        "string",
					"description": "Event start date in DD/MM/YYYY format",
				},
				"end_date": map[string]any{
					"type":        "string",
					"description": "Event end date in DD/MM/YYYY format",
				},
				"phone_number": map[string]any{
					"type":        "string",
					"description": "Contact phone number",
				},
			},
			"required": []string{"name", "age", "num_of_people", "purpose", "starting_date", "end_date", "phone_number"},
		},
		Handler: r.handleEventInquiry,
	})

	r.register(&Tool{
		Name:        "lead_gen",
		Description: "Record a sales lead when a guest shows interest but isn't ready to book yet.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Guest's name",
				},
				"phone_number": map[string]any{
					"type":        "string",
					"description": "Guest's phone number",
				},
				"type_of_lead": map[string]any{
					"type":        "string",
					"enum":        []string{"ROOM_BOOKING", "DAY_OUTING", "EVENT", "DINING"},
					"description": "What the guest is interested in",
				},
			},
			"required": []string{"name", "phone_number"},
		},
		Handler: r.handleLeadGen,
	})

	r.register(&Tool{
		Name:        "human_followup",
		Description: "Request a callback from the property team when a question is beyond what you can handle.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Guest's name",
				},
				"phone_number": map[string]any{
					"type":        "string",
					"description": "Phone number to call back",
				},
				"purpose": map[string]any{
					"type":        "string",
					"description": "What the guest needs help with",
				},
				"schedule_time": map[string]any{
					"type":        "string",
					"description": "When the guest prefers to be called",
				},
			},
			"required": []string{"name", "phone_number", "purpose", "schedule_time"},
		},
		Handler: r.handleHumanFollowup,
	})

	r.register(&Tool{
		Name:        "request_update_or_cancel",
		Description: "File a request to update or cancel an existing room booking or event inquiry. The team processes these manually.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"customer_name": map[string]any{
					"type":        "string",
					"description": "Name the booking was made under",
				},
				"customer_phone": map[string]any{
					"type":        "string",
					"description": "Phone number the booking was made with",
				},
				"booking_type": map[string]any{
					"type":        "string",
					"enum":        []string{"room-booking", "event-enquiry"},
					"description": "Which kind of booking this concerns",
				},
				"request_type": map[string]any{
					"type":        "string",
					"enum":        []string{"cancel", "update"},
					"description": "Whether to cancel or update",
				},
				"request_details": map[string]any{
					"type":        "string",
					"description": "What should change, or the reason for cancelling",
				},
			},
			"required": []string{"customer_name", "customer_phone", "booking_type", "request_type", "request_details"},
		},
		Handler: r.handleUpdateOrCancel,
	})
}
