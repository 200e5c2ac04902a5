package response

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domainagg "github.com/shamsacademy/academy-backend/internal/domain/aggregates"
	"github.com/shamsacademy/academy-backend/internal/platform/apierr"
	"github.com/shamsacademy/academy-backend/internal/platform/ctxutil"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

const internalMessage = "internal server error"

// retryHinter is implemented by errors that know when to try again.
type retryHinter interface {
	RetryAfterHint() time.Duration
}

// RespondDomainError writes err with the status of its domain kind. Only
// the domain message reaches the client; causes stay in the log.
func RespondDomainError(c *gin.Context, log *logger.Logger, err error) {
	ae := apierr.FromDomain(err)
	status, code := ae.Status, ae.Code
	if code == "" {
		code = string(domainagg.CodeInternal)
	}

	msg := domainagg.MessageOf(err)
	var direct *apierr.Error
	if errors.As(err, &direct) && direct.Err != nil && msg == "" {
		msg = direct.Err.Error()
	}
	if msg == "" || (status >= http.StatusInternalServerError && domainagg.CodeOf(err) == "") {
		msg = internalMessage
	}

	var rh retryHinter
	if errors.As(err, &rh) {
		if wait := rh.RetryAfterHint(); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		}
	}

	if log != nil {
		fields := []interface{}{"status", status, "code", code, "error", err}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "request_id", td.RequestID)
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Debug("request rejected", fields...)
		}
	}

	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Message: msg, Code: code},
	})
}
