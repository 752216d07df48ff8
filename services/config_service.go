package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
	"gopkg.in/yaml.v3"
)

// ConfigPublisher announces that the topic configuration changed.
type ConfigPublisher interface {
	PublishConfigUpdatedNotification() error
}

// UpdateListener is called with the new configuration after a successful update.
type UpdateListener func(cfg *config.Config)

// TeleopConfigService manages the topic configuration the console runs with.
type TeleopConfigService interface {
	LoadConfig() error
	GetCurrentConfig() *config.Config
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
	PersistConfig(yamlData []byte) error
	SetPublisher(p ConfigPublisher)
	OnUpdate(l UpdateListener)
}

type teleopConfigService struct {
	path      string
	logger    customlog.Logger
	publisher ConfigPublisher
	listeners []UpdateListener
	current   *config.Config
	mu        sync.RWMutex
}

// NewTeleopConfigService creates the service and loads path. A missing file
// leaves the built-in default topics in place.
func NewTeleopConfigService(path string, logger customlog.Logger) (TeleopConfigService, error) {
	if path == "" {
		return nil, fmt.Errorf("topic configuration path cannot be empty")
	}

	s := &teleopConfigService{
		path:   path,
		logger: logger,
	}

	if err := s.LoadConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Warnf("Topic config '%s' not found, using default topics", path)
		s.current = config.DefaultConfig()
		return s, nil
	}

	logger.Infof("TeleopConfigService initialized for path: %s", path)
	return s, nil
}

// LoadConfig reads and validates the topic config file. The previous
// configuration is kept when loading fails.
func (s *teleopConfigService) LoadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("Loading topic configuration from: %s", s.path)
	cfg, err := config.LoadConfig(s.path)
	if err != nil {
		return fmt.Errorf("error loading topic config '%s': %w", s.path, err)
	}

	s.current = cfg
	s.logger.Infof("Loaded topic configuration ID: %s, Version: %s", cfg.ConfigID, cfg.Version)
	return nil
}

// GetCurrentConfig returns the active configuration. Callers must not modify it.
func (s *teleopConfigService) GetCurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// GetCurrentConfigYAML returns the file contents, or the active configuration
// marshalled to YAML when the file has not been written yet.
func (s *teleopConfigService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || s.current == nil {
		return nil, fmt.Errorf("error reading topic config '%s': %w", s.path, err)
	}

	data, err = yaml.Marshal(s.current)
	if err != nil {
		return nil, fmt.Errorf("error encoding topic config: %w", err)
	}
	return data, nil
}

// UpdateConfig validates, persists and applies a new configuration, then
// notifies listeners and the publisher.
func (s *teleopConfigService) UpdateConfig(newConfigYAML []byte) error {
	s.mu.Lock()

	newCfg, err := config.ParseConfig(newConfigYAML)
	if err != nil {
		s.mu.Unlock()
		s.logger.Errorf("Rejected topic configuration: %v", err)
		return err
	}

	if err := s.persistLocked(newConfigYAML); err != nil {
		s.mu.Unlock()
		return err
	}

	oldID := "N/A"
	if s.current != nil {
		oldID = s.current.ConfigID
	}
	s.current = newCfg
	listeners := append([]UpdateListener(nil), s.listeners...)
	publisher := s.publisher
	s.mu.Unlock()

	s.logger.Infof("Updated topic configuration. ID %s -> %s, Version: %s", oldID, newCfg.ConfigID, newCfg.Version)

	for _, l := range listeners {
		l(newCfg)
	}

	if publisher != nil {
		if err := publisher.PublishConfigUpdatedNotification(); err != nil {
			s.logger.Warnf("Failed to publish config update notification: %v", err)
		}
	}
	return nil
}

// PersistConfig writes yamlData to the config file without applying it.
func (s *teleopConfigService) PersistConfig(yamlData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(yamlData)
}

func (s *teleopConfigService) persistLocked(yamlData []byte) error {
	if err := os.WriteFile(s.path, yamlData, 0o644); err != nil {
		s.logger.Errorf("Error writing topic config '%s': %v", s.path, err)
		return fmt.Errorf("error writing topic config '%s': %w", s.path, err)
	}
	s.logger.Debugf("Persisted topic configuration to %s", s.path)
	return nil
}

// SetPublisher injects the notification publisher once the bus exists.
func (s *teleopConfigService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// OnUpdate registers l to run after each successful UpdateConfig.
func (s *teleopConfigService) OnUpdate(l UpdateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
