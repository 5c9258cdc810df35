package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptomart/internal/domain"
	authsvc "cryptomart/internal/service/auth"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r credentialsRequest) toInput() authsvc.Credentials {
	return authsvc.Credentials{Username: r.Username, Email: r.Email, Password: r.Password}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, err := h.auth.Register(c.Request.Context(), req.toInput())
	if errors.Is(err, domain.ErrAlreadyExists) {
		abortWith(c, http.StatusConflict, "User already exists. Please login.")
		return
	}
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "User registered successfully", "token": token})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "Please provide username and password")
		return
	}
	token, role, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Login successful", "token": token, "role": role})
}

func (h *handlers) addAdmin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	_, err := h.auth.CreateAdmin(c.Request.Context(), req.toInput())
	if errors.Is(err, domain.ErrAlreadyExists) {
		abortWith(c, http.StatusConflict, "Admin already exists")
		return
	}
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "Admin created successfully"})
}

func (h *handlers) logout(c *gin.Context) {
	claims, _ := claimsFrom(c)
	if err := h.auth.Logout(c.Request.Context(), claims.SessionID); err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Logged out"})
}
