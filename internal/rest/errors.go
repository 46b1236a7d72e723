package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/api"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/session"
	"github.com/dfryer1193/artblog/internal/middleware"
)

// writeError maps a service error onto a status and the standard error body.
// Anything unrecognised came from a store or its transport.
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Items))
		for _, item := range verr.Items {
			fields[item.Field] = item.Message
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: verr.Error(), Fields: fields})
	case errors.Is(err, domain.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, api.ErrorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid credentials"})
	default:
		log.Error().Err(err).Str("requestID", middleware.GetRequestID(c)).Str("path", c.Request.URL.Path).Msg("Store request failed")
		c.AbortWithStatusJSON(http.StatusBadGateway, api.ErrorResponse{Error: "the post store could not be reached"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
}
