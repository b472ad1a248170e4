package messaging

import (
	"fmt"
	"strings"
	"time"
)

// RabbitMQConfig carries the broker settings. The application-level values
// come from the viper config; the retry and timeout fields default inside
// NewRabbitMQClient when left zero.
type RabbitMQConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	VHost             string
	Exchange          string
	RetryCount        int
	RetryDelay        time.Duration
	ConnectionTimeout time.Duration
}

func (c *RabbitMQConfig) ConnectionURL() string {
	vhost := c.VHost
	if vhost != "/" && !strings.HasPrefix(vhost, "/") {
		vhost = "/" + vhost
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		c.Username, c.Password, c.Host, c.Port, vhost)
}
