package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sepehr-data/mithra-pay/pkg/global"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

func (h *handler) register(c *gin.Context) {
	var req models.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.deps.Auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(user))
}

func (h *handler) login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.deps.Auth.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(session))
}

func (h *handler) sendOTP(c *gin.Context) {
	var req models.SendOTPRequest
	if !h.bindJSON(c, &req) {
		return
	}
	code, err := h.deps.Auth.SendOTP(c.Request.Context(), req.Phone)
	if err != nil {
		h.respondError(c, err)
		return
	}
	data := gin.H{"message": "otp sent"}
	if !h.deps.Config.IsProduction() {
		data["debug_code"] = code
	}
	c.JSON(http.StatusOK, global.SuccessResponse(data))
}

func (h *handler) verifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if !h.bindJSON(c, &req) {
		return
	}
	session, err := h.deps.Auth.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(session))
}

func (h *handler) me(c *gin.Context) {
	user, err := h.deps.Auth.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(user))
}
