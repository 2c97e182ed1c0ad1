// Package smtp открывает сессии с почтовым сервером для отправки писем покупателям.
package smtp

import (
	"context"
	"io"
)

// Client открытая SMTP-сессия. Подходит *smtp.Client из стандартной библиотеки.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Mailer открывает сессии и знает адрес отправителя.
type Mailer interface {
	Connect(ctx context.Context) (Client, error)
	// From значение заголовка From, например "BuzzPlay <noreply@example.com>".
	From() string
}
