package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondServerError hides internal detail in production and includes it
// elsewhere so local debugging stays cheap.
func respondServerError(c *gin.Context, route string, err error, production bool) {
	log.Printf("[%s] internal error: %v", route, err)
	body := gin.H{"error": "internal server error"}
	if !production && err != nil {
		body["detail"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

// respondValidationError translates binding failures into a message plus the
// offending field identifier, lowerCamel like the JSON payload.
func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fieldError := validationErrors[0]
		field := lowerCamel(fieldError.Field())

		var message string
		switch fieldError.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, fieldError.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
		case "gte":
			message = fmt.Sprintf("%s must be %s or greater", field, fieldError.Param())
		case "lte":
			message = fmt.Sprintf("%s must be %s or less", field, fieldError.Param())
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "field": field})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
}

// lowerCamel maps a struct field name to its JSON spelling: GoogleID ->
// googleId, Password -> password.
func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	if strings.HasSuffix(field, "ID") {
		field = field[:len(field)-2] + "Id"
	}
	return strings.ToLower(field[:1]) + field[1:]
}
