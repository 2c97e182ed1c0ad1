// Package notification готовит письма пяти фиксированных типов и ставит их в очередь на отправку.
// Ошибки уведомлений вызывающий код логирует и не считает фатальными.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/media-storefront/internal/errs"
	"github.com/magabrotheeeer/media-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/media-storefront/internal/models"
)

// UserGetter источник адреса получателя.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Publisher ставит готовое письмо в очередь.
type Publisher interface {
	Publish(ctx context.Context, message any) error
}

// Metrics счётчик исходов отправки.
type Metrics interface {
	ObserveNotification(notificationType string, err error)
}

type Dispatcher struct {
	users     UserGetter
	publisher Publisher
	metrics   Metrics
	log       *slog.Logger
}

func NewDispatcher(log *slog.Logger, users UserGetter, publisher Publisher, metrics Metrics) *Dispatcher {
	return &Dispatcher{
		users:     users,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
	}
}

// Send отправляет уведомление пользователю userID.
// Неизвестный тип возвращает *errs.ValidationError, отсутствующий пользователь errs.ErrUserNotFound,
// прочие сбои оборачиваются в *errs.NotificationError.
func (d *Dispatcher) Send(ctx context.Context, userID string, typ models.NotificationType, data models.TemplateData) error {
	const op = "notification.Send"
	log := d.log.With(
		slog.String("op", op),
		sl.User(userID),
		slog.String("type", string(typ)),
	)

	err := d.send(ctx, userID, typ, data)
	if d.metrics != nil {
		d.metrics.ObserveNotification(string(typ), err)
	}
	if err != nil {
		log.Error("failed to send notification", sl.Err(err))
		return err
	}
	log.Info("notification queued")
	return nil
}

func (d *Dispatcher) send(ctx context.Context, userID string, typ models.NotificationType, data models.TemplateData) error {
	if !typ.Valid() {
		return errs.Validation("type", fmt.Sprintf("unsupported notification type %q", typ))
	}
	if userID == "" {
		return errs.Validation("userId", "is required")
	}

	user, err := d.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return err
		}
		return &errs.NotificationError{UserID: userID, Type: string(typ), Err: err}
	}

	subject, text, html, err := Render(typ, data)
	if err != nil {
		return &errs.NotificationError{UserID: userID, Type: string(typ), Err: err}
	}

	message := models.EmailMessage{
		UserID:  userID,
		Type:    typ,
		To:      user.Email,
		Subject: subject,
		Text:    text,
		HTML:    html,
	}
	if err := d.publisher.Publish(ctx, message); err != nil {
		return &errs.NotificationError{UserID: userID, Type: string(typ), Err: err}
	}
	return nil
}
