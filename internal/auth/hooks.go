package auth

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/haidang029kg/ytb-api/internal/signals"
)

// ConfirmationLinkHook returns a registration hook that mints a confirmation
// token and logs the confirmation URL. Delivery (email) is out of scope; the
// URL is logged so an operator or dev setup can complete the flow.
func ConfirmationLinkHook(jwt *JWTService, publicBaseURL string, logger *zap.Logger) signals.HandlerFunc {
	return func(ctx context.Context, userID int64) error {
		token, err := jwt.GenerateConfirmToken(userID)
		if err != nil {
			return fmt.Errorf("confirm token: %w", err)
		}
		confirmURL := fmt.Sprintf("%s/auth/registration/confirm?token=%s", publicBaseURL, url.QueryEscape(token))
		logger.Info("registration confirmation link issued",
			zap.Int64("user_id", userID),
			zap.String("url", confirmURL),
		)
		return nil
	}
}

// WelcomeHook returns a registration-complete hook that records the welcome event.
func WelcomeHook(logger *zap.Logger) signals.HandlerFunc {
	return func(ctx context.Context, userID int64) error {
		logger.Info("welcome", zap.Int64("user_id", userID))
		return nil
	}
}

// IntroductionHook returns a registration-complete hook pointing new users at
// the studio upload flow.
func IntroductionHook(logger *zap.Logger) signals.HandlerFunc {
	return func(ctx context.Context, userID int64) error {
		logger.Info("studio introduction", zap.Int64("user_id", userID))
		return nil
	}
}
