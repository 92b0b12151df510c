package email

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ripwatch/internal/config"
	"ripwatch/internal/types"
)

// Channel delivers a freshly generated report to the configured recipients.
// When the channel is disabled it is a no-op, so callers never need to guard
// the dispatch themselves.
type Channel struct {
	provider Provider
	cfg      config.EmailConfig
	logger   *slog.Logger
}

// ChannelConfig holds the dependencies needed to create a Channel.
type ChannelConfig struct {
	Provider Provider
	Email    config.EmailConfig
	Logger   *slog.Logger
}

// NewChannel creates a Channel with the given dependencies.
func NewChannel(cfg ChannelConfig) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		provider: cfg.Provider,
		cfg:      cfg.Email,
		logger:   logger,
	}
}

// NotifyReport emails the report image to the configured recipients. The
// subject carries both language labels so a single list can serve readers of
// either language.
func (c *Channel) NotifyReport(ctx context.Context, result *types.ForecastResult) error {
	if !c.cfg.Enabled || len(c.cfg.Recipients) == 0 {
		c.logger.Debug("email channel disabled, skipping dispatch")
		return nil
	}

	data, err := os.ReadFile(result.OutputImagePath)
	if err != nil {
		return types.NewAppError(
			types.ErrCodeUpstreamEmailProvider, "failed to read report image for email", err)
	}

	msg := Message{
		FromName:    c.cfg.FromName,
		FromAddress: c.cfg.FromAddress,
		To:          c.cfg.Recipients,
		Subject:     subjectFor(result.AlertStatus),
		BodyText:    bodyFor(result),
		Attachment: &Attachment{
			Filename:    filepath.Base(result.OutputImagePath),
			ContentType: contentTypeFor(result.OutputImagePath),
			Data:        data,
		},
	}

	msgID, err := c.provider.Send(ctx, msg)
	if err != nil {
		c.logger.Error("report email dispatch failed",
			slog.String("alert_level", string(result.AlertStatus.Level)),
			slog.Any("error", err),
		)
		return err
	}

	c.logger.Info("report email dispatched",
		slog.String("message_id", msgID),
		slog.Int("recipients", len(c.cfg.Recipients)),
		slog.String("alert_level", string(result.AlertStatus.Level)),
	)
	return nil
}

func subjectFor(status types.AlertStatus) string {
	return fmt.Sprintf("Rip Current Report: %s / %s", status.LabelEnglish, status.LabelSpanish)
}

func bodyFor(result *types.ForecastResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current conditions: %s (%s)\n\n", result.AlertStatus.LabelEnglish, result.AlertStatus.LabelSpanish)
	fmt.Fprintf(&b, "Strong current coverage: %.2f%%\n", result.ColorDetection.RedPercentage)
	fmt.Fprintf(&b, "Moderate current coverage: %.2f%%\n", result.ColorDetection.YellowPercentage)
	fmt.Fprintf(&b, "Generated at: %s\n\n", result.GeneratedAt.Format("2006-01-02 15:04 UTC"))
	b.WriteString("The full report is attached.\n")
	return b.String()
}

func contentTypeFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".jpg") {
		return "image/jpeg"
	}
	return "image/png"
}
