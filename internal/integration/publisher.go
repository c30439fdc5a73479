package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/config"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Publisher 领域事件发布接口
type Publisher interface {
	Publish(ctx context.Context, subject string, v interface{}) error
	Close() error
}

// NATSPublisher 基于 NATS 的事件发布器
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewPublisher 根据配置创建发布器,未配置 URL 时返回空实现
func NewPublisher(cfg config.NATSConfig, logger logrus.FieldLogger) (Publisher, error) {
	if cfg.URL == "" {
		return NoopPublisher{}, nil
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("cop-ui"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil && logger != nil {
				logger.WithError(err).Warn("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			if logger != nil {
				logger.WithField("url", conn.ConnectedUrl()).Info("nats reconnected")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, prefix: cfg.SubjectPrefix}, nil
}

// Subject 拼接主题前缀
func (p *NATSPublisher) Subject(subject string) string {
	if p.prefix == "" {
		return subject
	}
	return strings.TrimSuffix(p.prefix, ".") + "." + subject
}

// Publish 以 JSON 发布事件
func (p *NATSPublisher) Publish(ctx context.Context, subject string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.nc.Publish(p.Subject(subject), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close 刷新并关闭连接
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

// NoopPublisher 不发布任何事件
type NoopPublisher struct{}

// Publish 实现 Publisher
func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Close 实现 Publisher
func (NoopPublisher) Close() error { return nil }
