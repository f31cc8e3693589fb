package cart

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/mobcommerce-backend/internal/apperr"
	"github.com/wichananm65/mobcommerce-backend/internal/middleware"
	"github.com/wichananm65/mobcommerce-backend/internal/response"
)

// Handler serves the /api/cart routes.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/cart", h.getCart)
	app.Post("/api/cart/add", h.add)
	app.Post("/api/cart/increment", h.increment)
	app.Post("/api/cart/decrement", h.decrement)
	app.Delete("/api/cart/remove", h.remove)
	app.Delete("/api/cart/clear", h.clear)
}

type lineRequest struct {
	ProductID    string `json:"productId"`
	ProductTitle string `json:"productTitle,omitempty"`
}

func callerID(c *fiber.Ctx) (int64, error) {
	id, err := middleware.IdentityFromCtx(c)
	if err != nil {
		return 0, apperr.Unauthorized("Token is invalid or expired. Authorization denied.")
	}
	return id.UserID, nil
}

func parseLine(c *fiber.Ctx) (lineRequest, error) {
	var req lineRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperr.Validation("Invalid request body")
	}
	return req, nil
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	snap, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "", snap)
}

func (h *Handler) add(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	req, err := parseLine(c)
	if err != nil {
		return err
	}
	snap, err := h.service.Add(c.UserContext(), userID, req.ProductID, req.ProductTitle)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "Item added to cart", snap)
}

func (h *Handler) increment(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	req, err := parseLine(c)
	if err != nil {
		return err
	}
	snap, err := h.service.Increment(c.UserContext(), userID, req.ProductID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "Item quantity incremented", snap)
}

func (h *Handler) decrement(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	req, err := parseLine(c)
	if err != nil {
		return err
	}
	snap, err := h.service.Decrement(c.UserContext(), userID, req.ProductID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "Item quantity decremented", snap)
}

func (h *Handler) remove(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	req, err := parseLine(c)
	if err != nil {
		return err
	}
	snap, err := h.service.Remove(c.UserContext(), userID, req.ProductID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "Item removed from cart", snap)
}

func (h *Handler) clear(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	snap, err := h.service.Clear(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "Cart cleared", snap)
}
