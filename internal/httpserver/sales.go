package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptomart/internal/domain"
	salesvc "cryptomart/internal/service/sale"
)

type saleLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quoteRequest struct {
	Products []saleLineRequest `json:"products"`
}

type recordSaleRequest struct {
	Customer domain.Customer   `json:"customer"`
	Products []saleLineRequest `json:"products"`
}

func toLineInputs(lines []saleLineRequest) []salesvc.LineInput {
	out := make([]salesvc.LineInput, len(lines))
	for i, l := range lines {
		out[i] = salesvc.LineInput{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return out
}

func (h *handlers) quoteSale(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	cart, err := h.sales.Quote(c.Request.Context(), toLineInputs(req.Products))
	if err != nil {
		h.writeError(c, err, "One or more products were not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
}

func (h *handlers) recordSale(c *gin.Context) {
	var req recordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	claims, _ := claimsFrom(c)
	sale, err := h.sales.Record(c.Request.Context(), claims.UserID, req.Customer, toLineInputs(req.Products))
	if err != nil {
		h.writeError(c, err, "One or more products were not found")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "sale": sale})
}

func (h *handlers) getSale(c *gin.Context) {
	id := c.Param("id")
	claims, _ := claimsFrom(c)
	sale, err := h.sales.Get(c.Request.Context(), id, claims.UserID, claims.IsAdmin())
	if err != nil {
		h.writeError(c, err, "No sale found with id: "+id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sale": sale})
}
