package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/reset-password", h.ResetPassword)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Signup(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return response.Created(c, res)
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SigninRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Signin(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, res)
}

// FirebaseLogin exchanges a Firebase ID token for a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.auth.FirebaseLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, res)
}

// ForgotPassword starts a password reset. The answer is the same whether or
// not the email is registered.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return serviceError(err)
	}
	return response.Message(c, services.ForgotPasswordResponse)
}

// ResetPassword sets a new password using a reset token
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Password has been reset")
}
