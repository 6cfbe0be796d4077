package httpapi

import (
	"net/http"

	"task-wallet/internal/mapper"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s *Server) login(c *gin.Context) {
	req := credentialsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.log.Warn("http: login failed", zap.String("email", req.Email), zap.Error(err))
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, session)
}

func (s *Server) signup(c *gin.Context) {
	req := credentialsRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := s.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.log.Warn("http: signup failed", zap.String("email", req.Email), zap.Error(err))
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (s *Server) logout(c *gin.Context) {
	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing bearer token"})
		return
	}

	if err := s.auth.SignOut(c.Request.Context(), token); err != nil {
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}

func (s *Server) recoverPassword(c *gin.Context) {
	req := emailRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.auth.ResetPassword(c.Request.Context(), req.Email); err != nil {
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "recovery email sent"})
}
