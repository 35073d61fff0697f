package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/yukikurage/projectly-api/internal/errors"
	"github.com/yukikurage/projectly-api/internal/middleware"
	"github.com/yukikurage/projectly-api/internal/policy"
	"github.com/yukikurage/projectly-api/internal/services"
)

// respondError maps a service error to its HTTP response. Unclassified
// errors are store failures: they are logged and hidden from the client.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		apierrors.NotFound(c, err.Error())
	case services.KindValidation:
		apierrors.BadRequest(c, err.Error())
	case services.KindForbidden:
		apierrors.Forbidden(c, err.Error())
	case services.KindUnauthenticated:
		apierrors.Unauthorized(c, err.Error())
	case services.KindConflict:
		apierrors.Conflict(c, err.Error())
	case services.KindUnavailable:
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.KeyRequestID)),
			zap.Error(err))
		apierrors.InternalError(c, "")
	}
}

// actorOrAbort returns the authenticated actor, answering 401 when the
// route was not behind RequireAuth.
func actorOrAbort(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return actor, ok
}

// pathID parses the :id path parameter.
func pathID(c *gin.Context, what string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+what+" ID")
		return 0, false
	}
	return id, true
}
