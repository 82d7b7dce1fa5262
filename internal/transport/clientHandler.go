package transport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shutterdesk/shutterdesk/internal/entity"
	"github.com/shutterdesk/shutterdesk/internal/service"
)

type ClientHandler struct {
	clientService service.ClientService
}

func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// SuccessResponse wraps a successful API response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse wraps a failed API response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req service.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, entity.ErrClientAlreadyExists) {
			c.JSON(http.StatusConflict, ErrorResponse{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Message: "Client created successfully",
		Data:    client,
	})
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.clientService.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, entity.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) GetAllClients(c *gin.Context) {
	// Optional email lookup, used by the portal to find an existing client
	if email := c.Query("email"); email != "" {
		client, err := h.clientService.GetClientByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, entity.ErrClientNotFound) {
				c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Client not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, []*entity.Client{client})
		return
	}

	clients, err := h.clientService.GetAllClients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	var req service.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, entity.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Client not found"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Client updated successfully",
		Data:    client,
	})
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	err := h.clientService.DeleteClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrClientNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Success: false, Error: "Client not found"})
		case errors.Is(err, entity.ErrInvalidBookingStatus):
			c.JSON(http.StatusConflict, ErrorResponse{Success: false, Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Client deleted successfully",
	})
}
