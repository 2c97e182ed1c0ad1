package rabbitmq

import "github.com/streadway/amqp"

const (
	// NotificationsExchange direct-обменник всех уведомлений.
	NotificationsExchange = "notifications"
	// EmailQueue очередь писем для notification-sender.
	EmailQueue = "notifications.email"
	// EmailRoutingKey ключ маршрутизации писем.
	EmailRoutingKey = "email"
	// EmailDeadQueue сюда попадают письма, отклонённые как ErrMalformed.
	EmailDeadQueue = "notifications.email.dead"
	// EmailDeadRoutingKey ключ, с которым брокер перекладывает отклонённые письма.
	EmailDeadRoutingKey = "email.dead"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
	// DeadLetterKey ключ в NotificationsExchange для отклонённых сообщений. Пустой отключает.
	DeadLetterKey string
}

// Args аргументы QueueDeclare для очереди.
func (q QueueConfig) Args() amqp.Table {
	if q.DeadLetterKey == "" {
		return nil
	}
	return amqp.Table{
		"x-dead-letter-exchange":    NotificationsExchange,
		"x-dead-letter-routing-key": q.DeadLetterKey,
	}
}

func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: EmailRoutingKey, DeadLetterKey: EmailDeadRoutingKey},
		{QueueName: EmailDeadQueue, RoutingKey: EmailDeadRoutingKey},
	}
}
