package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"litterwatch/lib/litter"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// Smtp emails each announcement to a fixed recipient list.
type Smtp struct {
	config SmtpConfig
}

func NewSmtp(config SmtpConfig) Smtp {
	return Smtp{config: config}
}

func (n Smtp) NotifyNew(ctx context.Context, l litter.Litter, screenshotPath string) error {
	ctx, span := tracer.Start(ctx, "smtp:NotifyNew")
	defer span.End()

	subject := "New litter detected"
	if l.KennelName != "" {
		subject = "New litter: " + l.KennelName
	}

	var body strings.Builder
	body.WriteString("A new litter announcement was detected.\n\n")
	for _, f := range fields(l) {
		fmt.Fprintf(&body, "%s: %s\n", f.Label, f.Value)
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Litterwatch <%s>", n.config.EmailAddress)
	mail.To = n.config.To
	mail.Subject = subject
	mail.Text = []byte(body.String())

	if screenshotPath != "" {
		_, err := mail.AttachFile(screenshotPath)
		if err != nil {
			slog.WarnContext(ctx, "failed to attach screenshot, sending without it",
				"path", screenshotPath, "err", err)
		}
	}

	err := mail.Send(
		fmt.Sprintf("%s:%d", n.config.Server, n.config.Port),
		smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(fmt.Sprintf("%s:%d", n.config.Server, n.config.Port), nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send notification email: %w", err)
	}
	return nil
}
