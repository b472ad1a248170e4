package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"
)

// RabbitMQClient maintains one connection and channel against a topic
// exchange, reconnecting when the broker drops the link.
type RabbitMQClient struct {
	config     *RabbitMQConfig
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	isClosing  bool
}

func NewRabbitMQClient(config *RabbitMQConfig) *RabbitMQClient {
	if config.RetryCount == 0 {
		config.RetryCount = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 5 * time.Second
	}
	if config.ConnectionTimeout == 0 {
		config.ConnectionTimeout = 30 * time.Second
	}
	return &RabbitMQClient{config: config}
}

func (r *RabbitMQClient) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for i := 0; i < r.config.RetryCount; i++ {
		r.connection, err = amqp.Dial(r.config.ConnectionURL())
		if err != nil {
			log.Warn().Err(err).
				Int("attempt", i+1).
				Int("max", r.config.RetryCount).
				Msg("RabbitMQ connection failed")
			if i < r.config.RetryCount-1 {
				time.Sleep(r.config.RetryDelay)
				continue
			}
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}

		r.channel, err = r.connection.Channel()
		if err != nil {
			r.connection.Close()
			return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
		}

		err = r.channel.ExchangeDeclare(
			r.config.Exchange, // name
			"topic",           // type
			true,              // durable
			false,             // auto-deleted
			false,             // internal
			false,             // no-wait
			nil,               // arguments
		)
		if err != nil {
			r.channel.Close()
			r.connection.Close()
			return fmt.Errorf("failed to declare exchange: %w", err)
		}

		log.Info().Str("host", r.config.Host).Msg("connected to RabbitMQ")

		go r.handleReconnection()
		return nil
	}

	return err
}

func (r *RabbitMQClient) handleReconnection() {
	notifyClose := make(chan *amqp.Error)
	r.connection.NotifyClose(notifyClose)

	if err := <-notifyClose; err != nil && !r.isClosing {
		log.Warn().Err(err).Msg("RabbitMQ connection lost, reconnecting")
		time.Sleep(time.Second * 2)
		if reconnectErr := r.Connect(); reconnectErr != nil {
			log.Error().Err(reconnectErr).Msg("RabbitMQ reconnect failed")
		}
	}
}

func (r *RabbitMQClient) Channel() *amqp.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channel
}

func (r *RabbitMQClient) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connection != nil && !r.connection.IsClosed()
}

func (r *RabbitMQClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isClosing {
		return nil
	}
	r.isClosing = true

	var closeErr error
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			closeErr = fmt.Errorf("channel close error: %w", err)
		}
	}
	if r.connection != nil {
		if err := r.connection.Close(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; connection close error: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("connection close error: %w", err)
			}
		}
	}
	return closeErr
}
