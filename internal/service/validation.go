// Package service implements the social engine's business operations on top
// of the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"huddle/internal/events"
	"huddle/internal/models"
	"huddle/internal/observability"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs the struct tags of in and reports the first failure as
// a VALIDATION_ERROR.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return models.NewValidationError(fmt.Sprintf("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
		}
		return models.NewValidationError(fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return models.NewValidationError(err.Error())
}

// ActivityPublisher receives activities after their writes commit.
type ActivityPublisher interface {
	Publish(ctx context.Context, a events.Activity) error
}

// publishActivity is best-effort: the action already committed, so a failed
// publish is only logged.
func publishActivity(ctx context.Context, p ActivityPublisher, a events.Activity) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, a); err != nil {
		observability.Logger.WarnContext(ctx, "activity publish failed",
			slog.String("kind", string(a.Kind)),
			slog.String("error", err.Error()),
		)
	}
}
