package handlers

import (
	"errors"
	"strings"

	"einvoice-console/internal/adapters/http/middleware"
	"einvoice-console/internal/core/authz"
	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/core/services"
	"einvoice-console/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	gate        *authz.Gate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, gate *authz.Gate) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		gate:        gate,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ReturnURL string `json:"returnUrl"`
}

// Login handles operator login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Username) == "" {
		return response.BadRequest(c, "Vui lòng nhập tên đăng nhập")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Vui lòng nhập mật khẩu")
	}

	input := &services.LoginInput{
		Username:  strings.TrimSpace(req.Username),
		Password:  req.Password,
		ReturnURL: req.ReturnURL,
	}

	result, err := h.authService.Login(c.UserContext(), middleware.SessionFrom(c), middleware.SIDFrom(c), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Tên đăng nhập hoặc mật khẩu không đúng")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Dữ liệu không hợp lệ")
		case errors.Is(err, domain.ErrBackendUnavailable):
			return response.Error(c, fiber.StatusBadGateway, "Hệ thống hóa đơn tạm thời không phản hồi")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	return response.Success(c, "Login successful", result)
}

// Logout handles operator logout. It always succeeds locally; the backend
// revocation runs in the background.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	_ = h.authService.Logout(c.UserContext(), middleware.SessionFrom(c))
	return response.Success(c, "Logged out successfully", response.Redirect{Redirect: authz.SignInPath})
}

// Me returns the current operator
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	snap := middleware.SessionFrom(c).Snapshot()
	if snap == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user":    services.NewUserView(snap),
		"landing": h.gate.Landing(snap.Role),
	})
}

// Nav returns the screens the current operator may open
func (h *AuthHandler) Nav(c *fiber.Ctx) error {
	snap := middleware.SessionFrom(c).Snapshot()
	if snap == nil {
		return response.Success(c, "Navigation", fiber.Map{
			"screens": h.gate.Navigation(domain.Role("")),
		})
	}

	return response.Success(c, "Navigation", fiber.Map{
		"screens": h.gate.Navigation(snap.Role),
		"landing": h.gate.Landing(snap.Role),
	})
}
