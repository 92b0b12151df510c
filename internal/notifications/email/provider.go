// Package email delivers the generated report to subscribers as an email
// attachment via AWS SES.
package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"ripwatch/internal/types"
)

// Message is a fully-assembled outbound email. The report image rides along
// as a regular attachment so recipients see it inline in any client.
type Message struct {
	FromName    string
	FromAddress string
	To          []string
	Subject     string
	BodyText    string
	Attachment  *Attachment
}

// Attachment is a binary part of a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Provider transmits an assembled Message and returns the provider message ID.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SESAPI defines the subset of the SES v2 client used by SESProvider.
// Extracted for testability.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESProviderConfig holds the configuration for creating an SESProvider.
type SESProviderConfig struct {
	Logger *slog.Logger
}

// SESProvider implements Provider using AWS SES v2 raw sending, which is the
// only SES path that supports attachments. Authentication is handled via IAM
// roles; the AWS SDK provides built-in retry logic.
type SESProvider struct {
	api    SESAPI
	logger *slog.Logger
}

// NewSESProvider creates an SESProvider from an AWS config.
func NewSESProvider(awsCfg aws.Config, cfg SESProviderConfig) *SESProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SESProvider{
		api:    sesv2.NewFromConfig(awsCfg),
		logger: logger,
	}
}

// NewSESProviderWithAPI creates an SESProvider with a pre-configured SESAPI.
// Useful for testing with a mock SES interface.
func NewSESProviderWithAPI(api SESAPI, cfg SESProviderConfig) *SESProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SESProvider{api: api, logger: logger}
}

// Send assembles the raw MIME message and transmits it via SES SendEmail.
//
// Error mapping:
//   - TooManyRequestsException -> upstream_rate_limited
//   - SendingPausedException -> upstream_unavailable
//   - Other -> upstream_email_provider
func (s *SESProvider) Send(ctx context.Context, msg Message) (string, error) {
	raw, err := buildRawMessage(msg)
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeUpstreamEmailProvider, "failed to assemble email message", err)
	}

	result, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(formatFrom(msg.FromName, msg.FromAddress)),
		Destination: &sestypes.Destination{
			ToAddresses: msg.To,
		},
		Content: &sestypes.EmailContent{
			Raw: &sestypes.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return "", mapSESError(err)
	}

	msgID := ""
	if result.MessageId != nil {
		msgID = *result.MessageId
	}

	s.logger.Debug("email sent",
		slog.String("message_id", msgID),
		slog.Int("recipients", len(msg.To)),
	)
	return msgID, nil
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

// buildRawMessage assembles an RFC 2045 multipart/mixed message: headers, a
// plaintext body part, and the optional attachment encoded as base64.
func buildRawMessage(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", formatFrom(msg.FromName, msg.FromAddress))
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())

	textHeader := make(map[string][]string)
	textHeader["Content-Type"] = []string{"text/plain; charset=UTF-8"}
	textPart, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(msg.BodyText)); err != nil {
		return nil, err
	}

	if att := msg.Attachment; att != nil {
		attHeader := make(map[string][]string)
		attHeader["Content-Type"] = []string{att.ContentType}
		attHeader["Content-Transfer-Encoding"] = []string{"base64"}
		attHeader["Content-Disposition"] = []string{fmt.Sprintf("attachment; filename=%q", att.Filename)}
		attPart, err := writer.CreatePart(attHeader)
		if err != nil {
			return nil, err
		}
		encoder := base64.NewEncoder(base64.StdEncoding, attPart)
		if _, err := encoder.Write(att.Data); err != nil {
			return nil, err
		}
		if err := encoder.Close(); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mapSESError translates AWS SES errors into domain AppErrors.
func mapSESError(err error) error {
	var tooManyReqs *sestypes.TooManyRequestsException
	if errors.As(err, &tooManyReqs) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			fmt.Sprintf("SES rate limit exceeded: %v", err),
			err,
		)
	}

	var sendingPaused *sestypes.SendingPausedException
	if errors.As(err, &sendingPaused) {
		return types.NewAppError(
			types.ErrCodeUpstreamUnavailable,
			fmt.Sprintf("SES account sending paused: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeUpstreamEmailProvider,
		fmt.Sprintf("SES error: %v", err),
		err,
	)
}

// Compile-time assertion that SESProvider satisfies Provider.
var _ Provider = (*SESProvider)(nil)
