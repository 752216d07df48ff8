package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Topic ids understood by the console.
const (
	TopicMasterPose   = "mtm_pose"
	TopicSlavePose    = "psm_pose"
	TopicTeleopEnable = "teleop_enable"
	TopicMasterMode   = "mtm_control_mode"
	TopicSlaveMode    = "psm_control_mode"
	TopicEnableSlider = "enable_slider"
)

// ErrInvalidConfig marks topic configs that fail to parse or validate.
var ErrInvalidConfig = errors.New("invalid topic config")

// Directions
const (
	DirectionInbound  = "INBOUND"
	DirectionOutbound = "OUTBOUND"
)

// Config represents the operational topic configuration of the console
type Config struct {
	Version       string         `yaml:"version" json:"version"`
	ConfigID      string         `yaml:"config_id" json:"config_id"`
	LastUpdated   string         `yaml:"lastUpdated" json:"lastUpdated"`
	RobotID       string         `yaml:"robot_id" json:"robot_id"`
	TopicMappings []TopicMapping `yaml:"topic_mappings" json:"topic_mappings"`
	Defaults      DefaultsConfig `yaml:"defaults" json:"defaults"`
}

// TopicMapping binds a console role to a bus topic
type TopicMapping struct {
	TopicID     string `yaml:"topic_id" json:"topic_id"`
	Topic       string `yaml:"topic" json:"topic"`
	MessageType string `yaml:"message_type" json:"message_type"`
	Direction   string `yaml:"direction" json:"direction"`
	Priority    string `yaml:"priority" json:"priority"`
}

// DefaultsConfig holds default values for topic mappings
type DefaultsConfig struct {
	Priority  string `yaml:"priority" json:"priority"`
	Direction string `yaml:"direction" json:"direction"`
}

// DefaultTopicMappings are the topics of the irk master/slave pair.
func DefaultTopicMappings() []TopicMapping {
	return []TopicMapping{
		{TopicID: TopicMasterPose, Topic: "/irk_mtm/cartesian_pose_current", MessageType: "geometry_msgs/msg/Pose", Direction: DirectionInbound, Priority: "HIGH"},
		{TopicID: TopicSlavePose, Topic: "/irk_psm/cartesian_pose_current", MessageType: "geometry_msgs/msg/Pose", Direction: DirectionInbound, Priority: "HIGH"},
		{TopicID: TopicTeleopEnable, Topic: "/irk_teleop/enable", MessageType: "std_msgs/msg/Bool", Direction: DirectionOutbound, Priority: "HIGH"},
		{TopicID: TopicMasterMode, Topic: "/irk_mtm/control_mode", MessageType: "std_msgs/msg/Int8", Direction: DirectionOutbound, Priority: "STANDARD"},
		{TopicID: TopicSlaveMode, Topic: "/irk_psm/control_mode", MessageType: "std_msgs/msg/Int8", Direction: DirectionOutbound, Priority: "STANDARD"},
		{TopicID: TopicEnableSlider, Topic: "/irk_mtm/joint_state_publisher/enable_slider", MessageType: "sensor_msgs/msg/JointState", Direction: DirectionOutbound, Priority: "STANDARD"},
	}
}

// DefaultConfig is used when no topic config file exists.
func DefaultConfig() *Config {
	return &Config{
		Version:       "1.0",
		ConfigID:      "default",
		RobotID:       "irk",
		TopicMappings: DefaultTopicMappings(),
		Defaults: DefaultsConfig{
			Priority:  "STANDARD",
			Direction: DirectionOutbound,
		},
	}
}

// LoadConfig loads configuration from the specified file path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates a YAML topic config.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: error parsing config file: %v", ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &config, nil
}

// Validate checks the metadata and the topic mappings.
func (c *Config) Validate() error {
	if c.ConfigID == "" || c.Version == "" || c.RobotID == "" {
		return fmt.Errorf("validation failed: missing required fields (ConfigID, Version, RobotID)")
	}
	seen := make(map[string]bool, len(c.TopicMappings))
	for i, m := range c.TopicMappings {
		if m.TopicID == "" || m.Topic == "" {
			return fmt.Errorf("validation failed: topic_mappings[%d] needs topic_id and topic", i)
		}
		if seen[m.TopicID] {
			return fmt.Errorf("validation failed: duplicate topic_id %q", m.TopicID)
		}
		seen[m.TopicID] = true
		dir := m.Direction
		if dir == "" {
			dir = c.Defaults.Direction
		}
		if dir != "" && dir != DirectionInbound && dir != DirectionOutbound {
			return fmt.Errorf("validation failed: topic %q has unknown direction %q", m.TopicID, dir)
		}
	}
	return nil
}

// GetTopicMappingsByDirection returns topic mappings filtered by direction
func (c *Config) GetTopicMappingsByDirection(direction string) []TopicMapping {
	var result []TopicMapping

	for _, mapping := range c.ResolvedMappings() {
		if mapping.Direction == direction {
			result = append(result, mapping)
		}
	}

	return result
}

// GetTopicMappingByID returns the mapping for a topic id, with defaults applied
func (c *Config) GetTopicMappingByID(topicID string) (TopicMapping, bool) {
	for _, mapping := range c.TopicMappings {
		if mapping.TopicID == topicID {
			return applyDefaults(mapping, c.Defaults), true
		}
	}
	return TopicMapping{}, false
}

// ResolvedMappings returns every console role, taking configured mappings
// first and the built-in defaults for roles the file leaves out.
func (c *Config) ResolvedMappings() []TopicMapping {
	var result []TopicMapping
	for _, def := range DefaultTopicMappings() {
		if m, ok := c.GetTopicMappingByID(def.TopicID); ok {
			if m.MessageType == "" {
				m.MessageType = def.MessageType
			}
			result = append(result, m)
		} else {
			result = append(result, def)
		}
	}
	return result
}

// Topics resolves the six console roles into topic names.
func (c *Config) Topics() Topics {
	t := Topics{}
	for _, m := range c.ResolvedMappings() {
		switch m.TopicID {
		case TopicMasterPose:
			t.MasterPose = m.Topic
		case TopicSlavePose:
			t.SlavePose = m.Topic
		case TopicTeleopEnable:
			t.TeleopEnable = m.Topic
		case TopicMasterMode:
			t.MasterMode = m.Topic
		case TopicSlaveMode:
			t.SlaveMode = m.Topic
		case TopicEnableSlider:
			t.EnableSlider = m.Topic
		}
	}
	return t
}

// Topics is the resolved set of bus topics the console talks on.
type Topics struct {
	MasterPose   string
	SlavePose    string
	TeleopEnable string
	MasterMode   string
	SlaveMode    string
	EnableSlider string
}

// Inbound lists the topics the console subscribes to.
func (t Topics) Inbound() []string {
	return []string{t.MasterPose, t.SlavePose}
}

// applyDefaults merges default values into a topic mapping where fields are empty
func applyDefaults(mapping TopicMapping, defaults DefaultsConfig) TopicMapping {
	result := mapping

	if result.Priority == "" {
		result.Priority = defaults.Priority
	}

	if result.Direction == "" {
		result.Direction = defaults.Direction
	}

	return result
}
