package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/platform/apierr"
)

// ErrorEnvelope is the body of every failed request.
type ErrorEnvelope struct {
	OK      bool   `json:"ok"`
	Error   bool   `json:"error"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	env := ErrorEnvelope{OK: false, Error: true, Reason: code}
	// 5xx bodies never carry the underlying error text.
	if err != nil && status < http.StatusInternalServerError {
		env.Message = err.Error()
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, env)
}

// RespondAPIError maps err through apierr so services decide status and
// reason code.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, "internal", nil)
	}
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := ae.Code
	if code == "" {
		code = "internal"
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
