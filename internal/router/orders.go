package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/global"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

func (h *handler) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.deps.Orders.CreateOrder(c.Request.Context(), currentUserID(c), req.Items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(order.DetailView()))
}

func (h *handler) listMyOrders(c *gin.Context) {
	limit, offset, ok := h.pagination(c)
	if !ok {
		return
	}
	orders, err := h.deps.Orders.ListUserOrders(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	views := make([]models.OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, orders[i].View())
	}
	c.JSON(http.StatusOK, global.SuccessResponse(views))
}

func (h *handler) getOrder(c *gin.Context) {
	order, err := h.deps.Orders.GetOrder(c.Request.Context(), c.Param("id"))
	h.respondOrder(c, order, err)
}

func (h *handler) getOrderByNumber(c *gin.Context) {
	order, err := h.deps.Orders.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	h.respondOrder(c, order, err)
}

// respondOrder shows an order to its owner and to admins only.
func (h *handler) respondOrder(c *gin.Context, order *models.Order, err error) {
	if err == nil && !canSeeOrder(c, order) {
		err = apperr.NotFound("order not found")
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(order.DetailView()))
}

func canSeeOrder(c *gin.Context, order *models.Order) bool {
	claims := currentClaims(c)
	if claims == nil {
		return false
	}
	return order.UserID == claims.Subject || claims.HasRole(models.RoleAdmin)
}

func (h *handler) payOrder(c *gin.Context) {
	order, err := h.deps.Orders.Pay(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(order.DetailView()))
}
