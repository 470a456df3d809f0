package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

const DefaultSMTPPort = 587

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
}

// SMTPMailer delivers messages over SMTP.
type SMTPMailer struct {
	client *mail.Client
}

func NewSMTPMailer(config SMTPConfig) (*SMTPMailer, error) {
	if config.Host == "" {
		return nil, ErrMissingSMTPHost
	}

	if config.Port == 0 {
		config.Port = DefaultSMTPPort
	}

	opts := []mail.Option{mail.WithPort(config.Port)}

	if config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if config.SSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{client: client}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, message Message) (string, error) {
	msg, id, err := buildMessage(message)
	if err != nil {
		return "", err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("SMTP delivery failed: %w", err)
	}

	return id, nil
}

func buildMessage(message Message) (*mail.Msg, string, error) {
	msg := mail.NewMsg()

	if err := msg.FromFormat(message.FromName, message.From); err != nil {
		return nil, "", fmt.Errorf("invalid sender address %q: %w", message.From, err)
	}

	if err := msg.AddToFormat(message.ToName, message.To); err != nil {
		return nil, "", fmt.Errorf("invalid recipient address %q: %w", message.To, err)
	}

	id := uuid.NewString()

	msg.Subject(message.Subject)
	msg.SetMessageIDWithValue(id)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, message.HTML)

	return msg, id, nil
}
