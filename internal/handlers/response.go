package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sayit/internal/models"
	"sayit/internal/services"
	"sayit/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 10 * time.Second

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool                 `json:"success"`
	Data       interface{}          `json:"data,omitempty"`
	Message    string               `json:"message,omitempty"`
	Errors     map[string]string    `json:"errors,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
	Pagination *services.Pagination `json:"pagination,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func respondPage(c *gin.Context, data interface{}, p services.Pagination) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &p})
}

// respondOutcome reports a mutation; notification warnings ride along but
// never change the status code.
func respondOutcome(c *gin.Context, status int, message string, out *services.Outcome) {
	c.JSON(status, Response{
		Success:  true,
		Message:  message,
		Data:     out.Complaint,
		Warnings: out.Warnings,
	})
}

// respondError maps the service error taxonomy onto HTTP. Unknown errors are
// logged and reported without internals.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, Response{Message: verr.Message, Errors: verr.Fields})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, Response{Message: "Invalid credentials"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, Response{Message: forbiddenMessage(err)})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Message: "Resource not found"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, Response{Message: "Resource already exists"})
	case errors.Is(err, models.ErrUpstream):
		log.WithError(err).WithField("path", c.FullPath()).Warn("upstream failure")
		c.JSON(http.StatusBadGateway, Response{Message: "Upstream service unavailable"})
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, Response{Message: "Internal server error"})
	}
}

// forbiddenMessage keeps wrapped context such as "account is deactivated".
func forbiddenMessage(err error) string {
	if err == models.ErrForbidden {
		return "You do not have permission to perform this action"
	}
	return strings.TrimSuffix(err.Error(), ": "+models.ErrForbidden.Error())
}

func badRequest(c *gin.Context, field, problem string) {
	c.JSON(http.StatusBadRequest, Response{
		Message: "Invalid request data",
		Errors:  map[string]string{field: problem},
	})
}

// bindJSON decodes the body and runs `binding` tag validation.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fields := validator.FieldErrors(err)
		if fields == nil {
			fields = map[string]string{"body": "must be valid JSON"}
		}
		c.JSON(http.StatusBadRequest, Response{Message: "Invalid request data", Errors: fields})
		return false
	}
	return true
}

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		badRequest(c, name, "is not a valid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// pageParams reads page/limit; the services clamp them.
func pageParams(c *gin.Context) (int64, int64) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	return page, limit
}
