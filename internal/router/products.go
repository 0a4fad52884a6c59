package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sepehr-data/mithra-pay/pkg/global"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

func (h *handler) productFilter(c *gin.Context) (models.ProductFilter, bool) {
	limit, offset, ok := h.pagination(c)
	if !ok {
		return models.ProductFilter{}, false
	}
	return models.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("q"),
		Limit:    limit,
		Offset:   offset,
	}, true
}

func (h *handler) listProducts(c *gin.Context) {
	filter, ok := h.productFilter(c)
	if !ok {
		return
	}
	products, err := h.deps.Catalog.ListActive(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

func (h *handler) topWeekly(c *gin.Context) {
	limit, _, ok := h.pagination(c)
	if !ok {
		return
	}
	products, err := h.deps.Catalog.TopWeekly(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

func (h *handler) getProduct(c *gin.Context) {
	product, err := h.deps.Catalog.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}
