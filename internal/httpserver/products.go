package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cryptomart/internal/domain"
	productsvc "cryptomart/internal/service/product"
)

// priceInput keeps the exact text of a price as sent. A JSON string is
// unquoted; a bare JSON number is kept digit for digit and never decoded
// into a float.
type priceInput string

func (p *priceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = priceInput(s)
		return nil
	}
	*p = priceInput(data)
	return nil
}

type createProductRequest struct {
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Image             string     `json:"image"`
	ManufacturingYear string     `json:"manufacturingYear"`
	Price             priceInput `json:"price"`
	Quantity          int        `json:"quantity"`
}

var manufacturingLayouts = []string{time.RFC3339, "2006-01-02", "2006"}

// parseManufacturingDate accepts a full timestamp, a date or a bare year.
// An empty value yields the zero time, which product validation rejects.
func parseManufacturingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range manufacturingLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("manufacturing date %q", s)
}

func (h *handlers) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	made, err := parseManufacturingDate(req.ManufacturingYear)
	if err != nil {
		abortWith(c, http.StatusBadRequest, "Manufacturing year must be a date")
		return
	}
	claims, _ := claimsFrom(c)
	p, err := h.products.Create(c.Request.Context(), claims.UserID, productsvc.CreateInput{
		Name:              req.Name,
		Description:       req.Description,
		Image:             req.Image,
		ManufacturingDate: made,
		Price:             string(req.Price),
		Quantity:          req.Quantity,
	})
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": p})
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products, "count": len(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	id := c.Param("id")
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "No product found with id: "+id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

func (h *handlers) countProducts(c *gin.Context) {
	n, err := h.products.Count(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// totalSales reports the stock value rounded for display. The sum itself is
// exact; rounding happens only here.
func (h *handlers) totalSales(c *gin.Context) {
	total, err := h.products.TotalSales(c.Request.Context())
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalSales": total.Display()})
}
