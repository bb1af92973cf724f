package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/domain/filetask"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/protocol"
)

// DefaultMaxBody fits the largest editable file plus JSON overhead
const DefaultMaxBody = 16 << 20

// FileEvent dispatches POST /file/:action as the "file/<action>" event
func (h *Handlers) FileEvent(c *gin.Context) {
	h.dispatch(c, "file/"+c.Param("action"))
}

func (h *Handlers) dispatch(c *gin.Context, event string) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Debug("Failed to read request body", zap.String("event", event), zap.Error(err))
		c.JSON(http.StatusRequestEntityTooLarge, &protocol.Envelope{
			UUID:   middleware.GetRequestID(c),
			Event:  event,
			Status: protocol.StatusError,
			Data:   "request body too large or unreadable",
		})
		return
	}

	ctx := protocol.NewContext(c.Request.Context(), event, middleware.GetRequestID(c), raw)
	env := h.router.Dispatch(ctx)
	c.JSON(StatusFor(env), env)
}

// StatusFor maps an envelope to the HTTP status returned with it
func StatusFor(env *protocol.Envelope) int {
	if env.OK() {
		return http.StatusOK
	}

	err := env.Err()
	var notFound *protocol.NotFoundError
	var capacity *filetask.CapacityError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &capacity):
		return http.StatusTooManyRequests
	case errors.Is(err, protocol.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, protocol.ErrUnknownEvent):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
