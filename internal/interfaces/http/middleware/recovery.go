package middleware

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/errors"
	"github.com/retailhub/retailhub/internal/shared/logger"
	"github.com/retailhub/retailhub/internal/shared/utils"
)

// Recovery turns a handler panic into a 500 response.
func Recovery(log logger.Interface) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if checkBrokenConnection(recovered) {
			log.Warnw("connection broken during request",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"error", recovered)
			c.Abort()
			return
		}

		log.Errorw("panic recovered",
			"request_id", c.GetString(constants.ContextKeyRequestID),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error", fmt.Sprint(recovered),
			"stack", string(debug.Stack()))

		if !c.Writer.Written() {
			utils.ErrorResponseWithError(c, errors.NewInternalError(constants.ErrMsgInternalServerError))
		}
		c.Abort()
	})
}

// checkBrokenConnection checks if the error is a broken connection
func checkBrokenConnection(recovered any) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}
	var ne *net.OpError
	if !stderrors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if !stderrors.As(ne.Err, &se) {
		return false
	}
	msg := strings.ToLower(se.Error())
	return strings.Contains(msg, "connection reset by peer") || strings.Contains(msg, "broken pipe")
}

// ErrorHandler is the error boundary: it renders the last error a handler
// attached to the context. Taxonomy errors are logged at warn, anything else
// at error with the full cause, which never reaches the client.
func ErrorHandler(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		args := []any{
			"request_id", c.GetString(constants.ContextKeyRequestID),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		}
		if appErr := errors.GetAppError(err); appErr != nil {
			log.Warnw("request rejected", append(args, "code", appErr.Type, "message", appErr.Message)...)
		} else {
			log.Errorw("handler error occurred", append(args, "error", err.Error())...)
		}

		if !c.Writer.Written() {
			utils.ErrorResponseWithError(c, err)
		}
	}
}
