package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sepehr-data/mithra-pay/pkg/global"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

func (h *handler) adminListProducts(c *gin.Context) {
	filter, ok := h.productFilter(c)
	if !ok {
		return
	}
	products, err := h.deps.Catalog.ListAll(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(len(products)))
	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

func (h *handler) adminCreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.deps.Catalog.Create(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(product))
}

func (h *handler) adminUpdateProduct(c *gin.Context) {
	var req models.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.deps.Catalog.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

func (h *handler) adminUpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.deps.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(order.DetailView()))
}

func (h *handler) adminCreatePost(c *gin.Context) {
	var req models.CreatePostRequest
	if !h.bindJSON(c, &req) {
		return
	}
	post, err := h.deps.Blog.Create(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(post))
}
