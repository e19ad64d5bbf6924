// Package service implements the Mutation API: the only code that writes to
// the store. Every call validates its input, applies one atomic store update
// and reports the outcome to logs and metrics.
package service

import (
	"context"

	"bitsconnect/internal/models"
	"bitsconnect/internal/observability"
)

// Operation names used for logging, metrics and store change events.
const (
	OpToggleLike    = "toggle_like"
	OpToggleDislike = "toggle_dislike"
	OpAddComment    = "add_comment"
	OpCreatePost    = "create_post"
	OpSendMessage   = "send_message"
	OpCreateUser    = "create_user"
	OpUpdateProfile = "update_profile"
	OpUploadAvatar  = "upload_avatar"
	OpUploadBanner  = "upload_banner"
	OpLogin         = "login"
	OpLogout        = "logout"
)

var logger = observability.NewComponentLogger("service")

func isRejection(err error) bool {
	return models.IsValidation(err) || models.IsConflict(err) || models.IsAuth(err) || models.IsNotFound(err)
}

// observe records the outcome of one mutation.
func observe(ctx context.Context, op string, err error, fields map[string]interface{}) {
	rejected := isRejection(err)
	observability.MutationsTotal.WithLabelValues(op, observability.ResultLabel(err, rejected)).Inc()
	switch {
	case err == nil:
		logger.LogMutation(ctx, op, fields)
	case rejected:
		logger.LogRejected(ctx, op, err)
	default:
		logger.LogError(ctx, err, op, fields)
	}
}
