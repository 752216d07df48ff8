package zeromq

import (
	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
)

// ConfigNotificationTopic carries topic-config change notifications.
const ConfigNotificationTopic = "configuration.notification"

// JSONPublisher is satisfied by Bus.
type JSONPublisher interface {
	PublishJSON(topic string, v interface{}) error
}

// ConfigPublisher announces topic config updates on the bus
type ConfigPublisher struct {
	publisher JSONPublisher
	current   func() *config.Config
	logger    customlog.Logger
}

// NewConfigPublisher creates a new publisher for configuration updates
func NewConfigPublisher(publisher JSONPublisher, current func() *config.Config, logger customlog.Logger) *ConfigPublisher {
	return &ConfigPublisher{
		publisher: publisher,
		current:   current,
		logger:    logger,
	}
}

// PublishConfigUpdatedNotification publishes a notification that the config has been updated
func (p *ConfigPublisher) PublishConfigUpdatedNotification() error {
	cfg := p.current()
	if cfg == nil {
		return nil
	}
	p.logger.Infof("Publishing configuration update notification (ID: %s)", cfg.ConfigID)

	notification, err := NewMessage(MsgTypeConfigUpdated, map[string]interface{}{
		"config_id":    cfg.ConfigID,
		"version":      cfg.Version,
		"last_updated": cfg.LastUpdated,
	})
	if err != nil {
		return err
	}
	return p.publisher.PublishJSON(ConfigNotificationTopic, notification)
}
