package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wastemarket/mobile/internal/marketplace"
	"wastemarket/mobile/internal/models"
)

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req models.RegisterData
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	h.sendAuthResponse(c, http.StatusCreated, "User registered successfully", result)
}

func (h HandlerSet) Login(c *gin.Context) {
	var req models.LoginData
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req, clientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	h.sendAuthResponse(c, http.StatusOK, "Login successful", result)
}

// Logout always succeeds and always expires the cookie.
func (h HandlerSet) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.Backend.Security.CookieName)
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.log.Warn().Err(err).Msg("logout: session not removed")
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Logged out successfully"})
}

func (h HandlerSet) Profile(c *gin.Context) {
	user := currentUser(c).User
	c.JSON(http.StatusOK, models.ProfileResponse{Success: true, User: &user})
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileData
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Success: true, Message: "Profile updated successfully", User: &user})
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordData
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), currentUser(c), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Password changed successfully"})
}

func (h HandlerSet) sendAuthResponse(c *gin.Context, status int, message string, result marketplace.AuthResult) {
	h.setSessionCookie(c, result.Token, int(time.Until(result.ExpiresAt).Seconds()))
	c.JSON(status, models.AuthResponse{
		Success: true,
		Message: message,
		User:    &result.User,
	})
}

func (h HandlerSet) setSessionCookie(c *gin.Context, value string, maxAge int) {
	sec := h.cfg.Backend.Security
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sec.CookieName, value, maxAge, "/", "", sec.CookieSecure, true)
}

func clientInfo(c *gin.Context) marketplace.ClientInfo {
	return marketplace.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}
