package entity

// BookingStats is the dashboard aggregate for the photographer: booking
// counts per lifecycle status and revenue figures derived from reconciled
// payment state.
type BookingStats struct {
	TotalBookings     int64   `json:"total_bookings"`
	DraftBookings     int64   `json:"draft_bookings"`
	InquiryBookings   int64   `json:"inquiry_bookings"`
	ProposalsSent     int64   `json:"proposals_sent"`
	ActiveBookings    int64   `json:"active_bookings"`
	CompletedBookings int64   `json:"completed_bookings"`
	TotalBooked       float64 `json:"total_booked"`
	TotalCollected    float64 `json:"total_collected"`
	Outstanding       float64 `json:"outstanding"`
}

// CollectionRate returns the fraction of booked revenue already collected.
func (s *BookingStats) CollectionRate() float64 {
	if s.TotalBooked == 0 {
		return 0.0
	}
	return s.TotalCollected / s.TotalBooked
}
