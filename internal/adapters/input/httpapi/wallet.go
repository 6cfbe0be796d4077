package httpapi

import (
	"net/http"
	"strconv"

	"task-wallet/internal/mapper"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type withdrawRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required"`
}

func (s *Server) getBalance(c *gin.Context) {
	userID := c.Param("userId")

	balance, err := s.ledger.GetBalance(c.Request.Context(), userID)
	if err != nil {
		s.log.Error("http: get balance failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, mapper.Balance(balance))
}

func (s *Server) listTransactions(c *gin.Context) {
	userID := c.Param("userId")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be numeric"})
			return
		}
		limit = parsed
	}

	transactions, err := s.ledger.ListTransactions(c.Request.Context(), userID, limit)
	if err != nil {
		s.log.Error("http: list transactions failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": mapper.Transactions(transactions)})
}

func (s *Server) withdraw(c *gin.Context) {
	userID := c.Param("userId")

	req := withdrawRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	if err := s.ledger.RequestWithdrawal(c.Request.Context(), userID, amount, req.Method); err != nil {
		s.log.Warn("http: withdrawal failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(mapper.Status(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
}
