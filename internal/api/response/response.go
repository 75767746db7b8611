// Package response holds the JSON envelopes and binding helpers shared by the api handlers.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/dealerhub/dealerhub/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const (
	MsgInvalidJSON       = "Invalid JSON"
	MsgMissingFields     = "Missing required fields"
	MsgInvalidFields     = "Invalid fields"
	MsgInternal          = "An error occurred"
	MsgUnauthorized      = "Unauthorized"
	MsgBadRequest        = "Bad Request"
	MsgAlreadyRegistered = "Already Registered"
)

var registerOnce sync.Once

// registerJSONNames makes validation errors report json field names instead of Go field names.
func registerJSONNames() {
	registerOnce.Do(func() {
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

// BindJSON decodes the request body into obj. On failure it writes a 400
// response and returns false.
func BindJSON(c *gin.Context, obj any) bool {
	registerJSONNames()

	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	// valid JSON with a wrongly typed field
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		InvalidFields(c, typeErr.Field)
		return false
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		logging.FromContext(c).Debug("failed to decode request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgInvalidJSON})
		return false
	}

	missing := lo.FilterMap(verrs, func(fe validator.FieldError, _ int) (string, bool) {
		return fe.Field(), fe.Tag() == "required"
	})
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgMissingFields, "fields": missing})
		return false
	}

	invalid := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return fe.Field()
	})
	InvalidFields(c, lo.Uniq(invalid)...)
	return false
}

// InvalidFields writes the 400 envelope naming the fields whose values were rejected.
func InvalidFields(c *gin.Context, fields ...string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": MsgInvalidFields, "fields": fields})
}

// Internal logs err with the request logger and writes the generic 500 envelope.
func Internal(c *gin.Context, msg string, err error) {
	logging.FromContext(c).Error(msg, "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": MsgInternal})
}

// Status writes an envelope whose status field mirrors the HTTP status code.
func Status(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": code, "message": message})
}

// Unauthorized aborts the request with the 403 envelope.
func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": http.StatusForbidden, "message": MsgUnauthorized})
}

// BadRequest writes the 400 envelope used by the dealer endpoints.
func BadRequest(c *gin.Context) {
	Status(c, http.StatusBadRequest, MsgBadRequest)
}
