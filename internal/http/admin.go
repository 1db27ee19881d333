package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service"
	"storefront/internal/whatsapp"
)

// @Summary List orders
// @Description Newest first.
// @Tags admin
// @Produce json
// @Success 200 {array} domain.Order
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /admin/orders [get]
func (s *Server) listOrders(c *gin.Context) {
	list, err := s.Orders.ListOrders(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags admin
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Router /admin/orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.Orders.GetOrder(c, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Complete order
// @Description Decrements stock for every line and marks the order completed, or changes nothing.
// @Tags admin
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/orders/{id}/complete [post]
func (s *Server) completeOrder(c *gin.Context) {
	s.resolve(c, domain.ActionComplete)
}

// @Summary Cancel order
// @Description Only pending orders can be cancelled. Stock is not restored.
// @Tags admin
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/orders/{id}/cancel [post]
func (s *Server) cancelOrder(c *gin.Context) {
	s.resolve(c, domain.ActionCancel, service.RequirePending())
}

func (s *Server) resolve(c *gin.Context, action domain.Action, opts ...service.ResolveOption) {
	o, err := s.Orders.ResolveOrder(c, c.Param("id"), action, opts...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type salesResponse struct {
	Total     string `json:"total"`
	Formatted string `json:"formatted"`
}

// @Summary Completed sales total
// @Tags admin
// @Produce json
// @Success 200 {object} salesResponse
// @Router /admin/sales [get]
func (s *Server) sales(c *gin.Context) {
	total, err := s.Orders.SalesTotal(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesResponse{Total: total.String(), Formatted: whatsapp.FormatPrice(total)})
}
