package transport

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shutterdesk/shutterdesk/internal/entity"
	"github.com/shutterdesk/shutterdesk/internal/service"
)

type BookingHandler struct {
	bookingService service.BookingService
}

func NewBookingHandler(bookingService service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrClientNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Client not found"})
		case errors.Is(err, entity.ErrMilestoneSumMismatch):
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: "Milestone amounts must add up to the booking total"})
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Booking created successfully",
		Data:    booking,
	})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entity.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetAllBookings returns bookings with offset pagination
func (h *BookingHandler) GetAllBookings(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	bookings, err := h.bookingService.GetAllBookings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   "Failed to get bookings: " + err.Error(),
		})
		return
	}

	// Optional status filter using the canonical status names
	if status := c.Query("status"); status != "" {
		want := entity.NormalizeBookingStatus(entity.BookingStatus(status))
		filtered := make([]*entity.Booking, 0, len(bookings))
		for _, b := range bookings {
			if b.Status == want {
				filtered = append(filtered, b)
			}
		}
		bookings = filtered
	}

	start := offset
	if start > len(bookings) {
		start = len(bookings)
	}
	end := start + limit
	if end > len(bookings) {
		end = len(bookings)
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Bookings retrieved successfully",
		Data:    bookings[start:end],
		Meta: map[string]interface{}{
			"total":    len(bookings),
			"limit":    limit,
			"offset":   offset,
			"has_more": end < len(bookings),
		},
	})
}

func (h *BookingHandler) GetClientBookings(c *gin.Context) {
	bookings, err := h.bookingService.GetClientBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	var req service.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	booking, err := h.bookingService.UpdateBooking(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Booking not found"})
		case errors.Is(err, entity.ErrInvalidBookingStatus):
			c.JSON(http.StatusConflict, ErrorResponse{Success: false, Error: err.Error()})
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Booking updated successfully",
		Data:    booking,
	})
}

func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	err := h.bookingService.DeleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Booking not found"})
		case errors.Is(err, entity.ErrInvalidBookingStatus):
			c.JSON(http.StatusConflict, ErrorResponse{Success: false, Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Booking deleted successfully",
		Meta:    map[string]interface{}{"booking_id": c.Param("id")},
	})
}

// SendProposal transitions a booking to PROPOSAL_SENT and queues the
// proposal email.
func (h *BookingHandler) SendProposal(c *gin.Context) {
	err := h.bookingService.SendProposal(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Booking not found"})
		case errors.Is(err, entity.ErrInvalidBookingStatus):
			c.JSON(http.StatusConflict, ErrorResponse{Success: false, Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Proposal sent",
		Meta:    map[string]interface{}{"booking_id": c.Param("id")},
	})
}

// GetStats returns the dashboard aggregate
func (h *BookingHandler) GetStats(c *gin.Context) {
	stats, err := h.bookingService.GetBookingStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
