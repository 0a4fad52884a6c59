package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sepehr-data/mithra-pay/pkg/global"
)

func (h *handler) listPosts(c *gin.Context) {
	limit, offset, ok := h.pagination(c)
	if !ok {
		return
	}
	posts, err := h.deps.Blog.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(posts))
}

func (h *handler) getPost(c *gin.Context) {
	post, err := h.deps.Blog.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(post))
}
