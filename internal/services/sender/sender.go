// Package sender доставляет готовые письма из очереди по SMTP.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/lib/smtp"
	"github.com/magabrotheeeer/media-storefront/internal/models"
	"github.com/magabrotheeeer/media-storefront/internal/rabbitmq"
)

type SenderService struct {
	transport smtp.Mailer
	log       *slog.Logger
	now       func() time.Time
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.Mailer) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
		now:       time.Now,
	}
}

// HandleMessage обработчик сообщения из очереди писем.
// Нечитаемые сообщения возвращают rabbitmq.ErrMalformed, чтобы их не возвращали в очередь.
func (s *SenderService) HandleMessage(ctx context.Context, body []byte) error {
	const op = "sender.HandleMessage"
	var message models.EmailMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %v: %w", op, err, rabbitmq.ErrMalformed)
	}
	if _, err := mail.ParseAddress(message.To); err != nil {
		s.log.Error("invalid recipient", slog.String("op", op), sl.User(message.UserID), sl.Err(err))
		return fmt.Errorf("%s: invalid recipient %q: %w", op, message.To, rabbitmq.ErrMalformed)
	}
	if message.Text == "" && message.HTML == "" {
		return fmt.Errorf("%s: empty body: %w", op, rabbitmq.ErrMalformed)
	}

	if err := s.Send(ctx, message); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("email sent successfully",
		sl.User(message.UserID),
		slog.String("type", string(message.Type)))
	return nil
}

// Send отправляет письмо multipart/alternative с текстовой и HTML-частью.
func (s *SenderService) Send(ctx context.Context, message models.EmailMessage) error {
	from := s.transport.From()
	envelopeFrom := from
	if addr, err := mail.ParseAddress(from); err == nil {
		envelopeFrom = addr.Address
	}

	msg, err := buildMessage(from, message, s.now())
	if err != nil {
		return err
	}
	return s.sendEmail(ctx, envelopeFrom, []string{message.To}, msg)
}

func buildMessage(from string, message models.EmailMessage, date time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=\"UTF-8\"", message.Text},
		{"text/html; charset=\"UTF-8\"", message.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	headers := strings.Join([]string{
		"From: " + from,
		"To: " + message.To,
		"Subject: " + mime.QEncoding.Encode("UTF-8", message.Subject),
		"Date: " + date.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=\"" + mw.Boundary() + "\"",
		"",
		"",
	}, "\r\n")
	return append([]byte(headers), body.Bytes()...), nil
}

func (s *SenderService) sendEmail(ctx context.Context, from string, to []string, msg []byte) error {
	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write(msg); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return errors.Join(err, wc.Close())
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}
