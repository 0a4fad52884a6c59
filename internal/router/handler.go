package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/global"
)

const healthTimeout = 2 * time.Second

type handler struct {
	deps Dependencies
	log  *slog.Logger
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(gin.H{
		"app":    h.deps.Config.AppName,
		"status": "running",
	}))
}

func (h *handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.deps.Health))
	healthy := true
	for name, p := range h.deps.Health {
		if err := p.Ping(ctx); err != nil {
			h.log.WarnContext(ctx, "health check failed", "dependency", name, "err", err)
			checks[name] = "unavailable"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		resp := global.ErrorResponse("Dependency check failed", nil)
		resp.Data = checks
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	checks["status"] = "OK"
	c.JSON(http.StatusOK, global.SuccessResponse(checks))
}

// respondError writes err using the status of its kind. Unclassified errors
// are logged and hidden from the client.
func (h *handler) respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		h.log.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(),
			"request_id", c.GetString(requestIDKey),
			"err", err,
		)
		c.JSON(http.StatusInternalServerError, global.CodedErrorResponse("internal_error", "Internal server error", nil))
		return
	}
	c.JSON(apperr.HTTPStatus(appErr), global.CodedErrorResponse(appErr.Code, appErr.Message, nil))
}

// bindJSON decodes the body into req and answers 400 when it is malformed
// or fails validation.
func (h *handler) bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields := make([]global.ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, global.FieldError(fe.Field(), fieldMessage(fe), fe.Tag()))
		}
		c.JSON(http.StatusBadRequest, global.CodedErrorResponse("validation_error", "Validation failed", fields))
	case errors.Is(err, io.EOF):
		c.JSON(http.StatusBadRequest, global.CodedErrorResponse("validation_error", "Request body is required", nil))
	default:
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			c.JSON(http.StatusBadRequest, global.CodedErrorResponse("validation_error", "Invalid request body", []global.ValidationError{
				global.FieldError(typeErr.Field, fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type), "type"),
			}))
			return false
		}
		c.JSON(http.StatusBadRequest, global.CodedErrorResponse("validation_error", "Invalid request body", nil))
	}
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}

var tagNamesOnce sync.Once

// registerTagNames makes validation errors report json field names.
func registerTagNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// pagination reads limit and offset query parameters. Zero means default.
func (h *handler) pagination(c *gin.Context) (limit, offset int, ok bool) {
	var errs []global.ValidationError
	parse := func(name string) int {
		raw := c.Query(name)
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs = append(errs, global.FieldError(name, name+" must be a non-negative integer", "invalid_format"))
			return 0
		}
		return n
	}
	limit, offset = parse("limit"), parse("offset")
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, global.CodedErrorResponse("validation_error", "Invalid pagination", errs))
		return 0, 0, false
	}
	return limit, offset, true
}
