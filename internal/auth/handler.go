package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/mobcommerce-backend/internal/apperr"
	"github.com/wichananm65/mobcommerce-backend/internal/middleware"
	"github.com/wichananm65/mobcommerce-backend/internal/response"
)

// Handler serves the /api/auth routes.
type Handler struct {
	service *Service
	limiter fiber.Handler
}

// NewHandler wires the auth endpoints. limiter guards the unauthenticated
// credential endpoints and may be nil.
func NewHandler(s *Service, limiter fiber.Handler) *Handler {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &Handler{service: s, limiter: limiter}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Post("/api/auth/register", h.limiter, h.register)
	app.Post("/api/auth/login", h.limiter, h.login)
	app.Post("/api/auth/forgot-password", h.limiter, h.forgotPassword)
	app.Post("/api/auth/reset-password", h.limiter, h.resetPassword)
}

func (h *Handler) RegisterProtectedRoutes(app fiber.Router) {
	app.Get("/api/auth/profile", h.profile)
	app.Get("/api/auth/users", h.listUsers)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

func (h *Handler) register(c *fiber.Ctx) error {
	var in RegisterInput
	if err := parse(c, &in); err != nil {
		return err
	}
	s, err := h.service.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusCreated, "User registered successfully", s)
}

func (h *Handler) login(c *fiber.Ctx) error {
	var in loginRequest
	if err := parse(c, &in); err != nil {
		return err
	}
	s, err := h.service.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "Login successful", s)
}

func (h *Handler) forgotPassword(c *fiber.Ctx) error {
	var in forgotRequest
	if err := parse(c, &in); err != nil {
		return err
	}
	res, err := h.service.ForgotPassword(c.UserContext(), in.Email)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, res.Message, res)
}

func (h *Handler) resetPassword(c *fiber.Ctx) error {
	var in resetRequest
	if err := parse(c, &in); err != nil {
		return err
	}
	if err := h.service.ResetPassword(c.UserContext(), in.Token, in.Password); err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "Password has been reset", fiber.Map{"message": "Password has been reset"})
}

func (h *Handler) profile(c *fiber.Ctx) error {
	caller, err := middleware.IdentityFromCtx(c)
	if err != nil {
		return apperr.Unauthorized("Token is invalid or expired. Authorization denied.")
	}
	p, err := h.service.GetProfile(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "", fiber.Map{"user": p})
}

func (h *Handler) listUsers(c *fiber.Ctx) error {
	caller, err := middleware.IdentityFromCtx(c)
	if err != nil {
		return apperr.Unauthorized("Token is invalid or expired. Authorization denied.")
	}
	users, err := h.service.ListUsers(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.StatusOK, "", fiber.Map{"users": users, "count": len(users)})
}
