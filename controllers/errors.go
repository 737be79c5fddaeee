package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// statusFor maps a service error kind onto an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, services.ErrInvalidCredentials) {
		return http.StatusUnauthorized
	}
	switch services.KindOf(err) {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondServiceError renders err in the response envelope. Store and unknown
// failures are logged and replaced by a generic message.
func respondServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		utils.ErrLog().WithError(err).WithField("path", c.FullPath()).Error("request failed")
		utils.RespondJSON(c, status, "internal server error", nil)
		return
	case http.StatusBadGateway:
		utils.ErrLog().WithError(err).WithField("path", c.FullPath()).Error("upstream failed")
		utils.RespondJSON(c, status, "upstream service unavailable", gin.H{"code": services.ErrUpstream.Code})
		return
	}
	utils.RespondJSON(c, status, err.Error(), gin.H{"code": services.CodeOf(err)})
}

func respondBindError(c *gin.Context, err error) {
	utils.RespondError(c, http.StatusBadRequest, err)
}
