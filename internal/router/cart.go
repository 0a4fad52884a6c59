package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/global"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

func (h *handler) getCart(c *gin.Context) {
	cart, err := h.deps.Carts.GetCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cart.View()))
}

func (h *handler) addCartItem(c *gin.Context) {
	var req models.AddCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cart, err := h.deps.Carts.AddItem(c.Request.Context(), currentUserID(c), req.ProductID, req.Qty())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(cart.View()))
}

func (h *handler) updateCartItem(c *gin.Context) {
	var req models.UpdateCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	itemID := c.Param("item_id")
	if err := h.ownCartItem(c, itemID); err != nil {
		h.respondError(c, err)
		return
	}
	cart, err := h.deps.Carts.UpdateItem(c.Request.Context(), itemID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cart.View()))
}

func (h *handler) removeCartItem(c *gin.Context) {
	itemID := c.Param("item_id")
	if err := h.ownCartItem(c, itemID); err != nil {
		h.respondError(c, err)
		return
	}
	cart, err := h.deps.Carts.RemoveItem(c.Request.Context(), itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cart.View()))
}

func (h *handler) clearCart(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)
	if err := h.deps.Carts.Clear(ctx, userID); err != nil {
		h.respondError(c, err)
		return
	}
	cart, err := h.deps.Carts.GetCart(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cart.View()))
}

// ownCartItem hides items of other users' carts behind a not found.
func (h *handler) ownCartItem(c *gin.Context, itemID string) error {
	cart, err := h.deps.Carts.GetCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		return err
	}
	if cart == nil || cart.Item(itemID) == nil {
		return apperr.NotFound("cart item not found")
	}
	return nil
}
