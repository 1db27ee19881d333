package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/service"
)

type cartResponse struct {
	service.CartView
	Warning string `json:"warning,omitempty"`
}

// respondCart answers 409 with the clamped cart when stock ran out, 200 otherwise.
func respondCart(c *gin.Context, view service.CartView, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, cartResponse{CartView: view})
	case errors.Is(err, service.ErrStockExceeded):
		c.JSON(http.StatusConflict, cartResponse{CartView: view, Warning: "not enough stock for the requested quantity"})
	default:
		writeError(c, err)
	}
}

// @Summary Current cart
// @Tags cart
// @Produce json
// @Success 200 {object} cartResponse
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartResponse{CartView: s.Carts.View(currentSession(c))})
}

type addCartItemReq struct {
	ProductID string `json:"product_id"`
}

// @Summary Add one unit of a product
// @Description Unknown or sold-out products leave the cart unchanged.
// @Tags cart
// @Accept json
// @Produce json
// @Param input body addCartItemReq true "Product"
// @Success 200 {object} cartResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} cartResponse
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	view, err := s.Carts.AddItem(c, currentSession(c), req.ProductID)
	respondCart(c, view, err)
}

type setCartItemReq struct {
	Quantity int64 `json:"quantity"`
}

// @Summary Set a line quantity
// @Description Zero or less removes the line; above stock clamps to stock and answers 409.
// @Tags cart
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param input body setCartItemReq true "Quantity"
// @Success 200 {object} cartResponse
// @Failure 409 {object} cartResponse
// @Router /cart/items/{id} [put]
func (s *Server) setCartItem(c *gin.Context) {
	var req setCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	view, err := s.Carts.SetQuantity(c, currentSession(c), c.Param("id"), req.Quantity)
	respondCart(c, view, err)
}

// @Summary Remove a line
// @Tags cart
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} cartResponse
// @Router /cart/items/{id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	view, err := s.Carts.Remove(c, currentSession(c), c.Param("id"))
	respondCart(c, view, err)
}

// @Summary Check out the cart
// @Description Stores a pending order and returns the WhatsApp link carrying its summary.
// @Description Anonymous sessions get 401 with login_required; the checkout resumes after login.
// @Tags checkout
// @Produce json
// @Success 201 {object} service.CheckoutResult
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]any
// @Failure 500 {object} map[string]string
// @Router /checkout [post]
func (s *Server) checkout(c *gin.Context) {
	res, err := s.Checkout.CheckoutSession(c, currentSession(c))
	if errors.Is(err, service.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "login_required": true})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
