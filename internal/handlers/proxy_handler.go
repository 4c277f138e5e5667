package handlers

import (
	"errors"

	"github.com/breakingmathclub/backend/internal/dto"
	"github.com/breakingmathclub/backend/internal/proxy"
	"github.com/gofiber/fiber/v2"
)

type ProxyHandler struct {
	forwarder *proxy.Forwarder
}

func NewProxyHandler(forwarder *proxy.Forwarder) *ProxyHandler {
	return &ProxyHandler{forwarder: forwarder}
}

// Forward relays a logical operation to the upstream store and reflects
// the upstream status and body back without interpretation. Timeouts map
// to 504 so the client can tell a retryable stall from a real failure.
func (h *ProxyHandler) Forward(c *fiber.Ctx) error {
	var req dto.ProxyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	result, err := h.forwarder.Forward(c.Context(), proxy.Request{
		Endpoint: req.Endpoint,
		Method:   req.Method,
		Body:     req.Body,
		Headers:  req.Headers,
	})
	if err != nil {
		switch {
		case errors.Is(err, proxy.ErrMissingEndpoint):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, proxy.ErrUpstreamTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error":     true,
				"message":   err.Error(),
				"retryable": true,
			})
		}
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Upstream request failed",
		})
	}

	c.Set("Content-Type", "application/json")
	return c.Status(result.StatusCode).Send(result.Body)
}
