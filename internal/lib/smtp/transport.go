package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/media-storefront/internal/config"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
)

// Режимы шифрования соединения.
const (
	SecurityStartTLS = "starttls"
	SecurityTLS      = "tls"
	SecurityNone     = "none"
)

// ErrStartTLSUnsupported сервер не объявил STARTTLS в режиме starttls.
var ErrStartTLSUnsupported = errors.New("smtp server does not support STARTTLS")

// Transport открывает сессии с сервером из config.SMTP.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewTransport создает Transport. Пустой режим шифрования считается starttls.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	if cfg.Security == "" {
		cfg.Security = SecurityStartTLS
	}
	return &Transport{cfg: cfg, log: log}
}

// Connect подключается к серверу, при необходимости включает TLS и авторизуется.
// Авторизация пропускается, если пользователь не задан.
func (t *Transport) Connect(ctx context.Context) (Client, error) {
	const op = "smtp.Connect"
	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)
	log := t.log.With(slog.String("op", op), slog.String("addr", addr), slog.String("security", t.cfg.Security))

	conn, err := t.dial(ctx, addr)
	if err != nil {
		log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("%s: failed to dial SMTP server: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		_ = conn.Close()
		log.Error("failed to create SMTP client", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := t.handshake(client); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("failed to close SMTP client", sl.Err(closeErr))
		}
		log.Error("smtp handshake failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return client, nil
}

func (t *Transport) dial(ctx context.Context, addr string) (net.Conn, error) {
	timeout := t.cfg.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	d := &net.Dialer{Timeout: timeout}
	if t.cfg.Security == SecurityTLS {
		td := &tls.Dialer{NetDialer: d, Config: t.tlsConfig()}
		return td.DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

func (t *Transport) handshake(client *smtp.Client) error {
	switch t.cfg.Security {
	case SecurityStartTLS:
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return ErrStartTLSUnsupported
		}
		if err := client.StartTLS(t.tlsConfig()); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	case SecurityTLS, SecurityNone:
	default:
		return fmt.Errorf("unknown smtp security mode %q", t.cfg.Security)
	}

	if t.cfg.User == "" {
		return nil
	}
	// PlainAuth отказывает без TLS на удалённых хостах, поэтому в режиме none
	// авторизация работает только с localhost.
	if err := client.Auth(smtp.PlainAuth("", t.cfg.User, t.cfg.Pass, t.cfg.Host)); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	return nil
}

func (t *Transport) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: t.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
}

// From адрес отправителя. Если он не задан, используется имя пользователя SMTP.
func (t *Transport) From() string {
	if t.cfg.From != "" {
		return t.cfg.From
	}
	return t.cfg.User
}
