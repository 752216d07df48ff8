package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
version: "1.0"
config_id: "test-console-config"
lastUpdated: "2024-01-01T00:00:00Z"
robot_id: "irk-bench"

topic_mappings:
  - topic_id: "mtm_pose"
    topic: "/bench_mtm/pose"
    message_type: "geometry_msgs/msg/Pose"
    direction: "INBOUND"
    priority: "HIGH"

  - topic_id: "teleop_enable"
    topic: "/bench_teleop/enable"
    priority: "HIGH"

defaults:
  priority: "STANDARD"
  direction: "OUTBOUND"
`

	configPath := filepath.Join(tempDir, "teleop_topics.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
	if config.ConfigID != "test-console-config" {
		t.Errorf("Expected config_id test-console-config, got %s", config.ConfigID)
	}
	if config.RobotID != "irk-bench" {
		t.Errorf("Expected robot_id irk-bench, got %s", config.RobotID)
	}
	if len(config.TopicMappings) != 2 {
		t.Errorf("Expected 2 topic mappings, got %d", len(config.TopicMappings))
	}

	enable, found := config.GetTopicMappingByID(TopicTeleopEnable)
	if !found {
		t.Fatalf("Expected to find teleop_enable mapping")
	}
	if enable.Direction != DirectionOutbound {
		t.Errorf("Expected default OUTBOUND direction, got %s", enable.Direction)
	}

	topics := config.Topics()
	if topics.MasterPose != "/bench_mtm/pose" {
		t.Errorf("Expected configured master pose topic, got %s", topics.MasterPose)
	}
	if topics.TeleopEnable != "/bench_teleop/enable" {
		t.Errorf("Expected configured enable topic, got %s", topics.TeleopEnable)
	}
	// Roles missing from the file fall back to the built-in topics
	if topics.SlavePose != "/irk_psm/cartesian_pose_current" {
		t.Errorf("Expected default slave pose topic, got %s", topics.SlavePose)
	}
	if topics.EnableSlider != "/irk_mtm/joint_state_publisher/enable_slider" {
		t.Errorf("Expected default enable slider topic, got %s", topics.EnableSlider)
	}
}

func TestTopicMappingHelpers(t *testing.T) {
	config := DefaultConfig()

	inbound := config.GetTopicMappingsByDirection(DirectionInbound)
	if len(inbound) != 2 {
		t.Fatalf("Expected 2 inbound topics, got %d", len(inbound))
	}
	if inbound[0].Topic != "/irk_mtm/cartesian_pose_current" {
		t.Errorf("Expected master pose first, got %s", inbound[0].Topic)
	}

	outbound := config.GetTopicMappingsByDirection(DirectionOutbound)
	if len(outbound) != 4 {
		t.Errorf("Expected 4 outbound topics, got %d", len(outbound))
	}

	if _, found := config.GetTopicMappingByID("nonexistent"); found {
		t.Errorf("Expected not to find nonexistent topic id")
	}

	in := config.Topics().Inbound()
	if len(in) != 2 || in[1] != "/irk_psm/cartesian_pose_current" {
		t.Errorf("Unexpected inbound topic list: %v", in)
	}
}

func TestParseConfigValidation(t *testing.T) {
	cases := map[string]string{
		"missing metadata": `
version: "1.0"
topic_mappings: []
`,
		"duplicate id": `
version: "1.0"
config_id: "x"
robot_id: "irk"
topic_mappings:
  - {topic_id: "mtm_pose", topic: "/a"}
  - {topic_id: "mtm_pose", topic: "/b"}
`,
		"bad direction": `
version: "1.0"
config_id: "x"
robot_id: "irk"
topic_mappings:
  - {topic_id: "mtm_pose", topic: "/a", direction: "SIDEWAYS"}
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(content)); err == nil {
				t.Errorf("Expected validation error")
			} else if !strings.Contains(err.Error(), "validation failed") {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestLoadBootstrapConfig(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
logging:
  level: "debug"
  log_path: "/var/log/teleop-console"
server:
  enabled: false
  http_port: 9090
zeromq:
  publish_address: "tcp://bench:6000"
  subscribe_address: "tcp://bench:6001"
  command_bind_address: "tcp://*:6002"
  receive_timeout_ms: 250
panel:
  period_ms: 20
  stylesheet: "styles/dark.yaml"
data:
  directory: "/data/console"
  topic_config_file: "bench_topics.yaml"
`
	configPath := filepath.Join(tempDir, BootstrapFileName)
	if err := os.WriteFile(configPath, []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	bootstrapCfg, err := LoadBootstrapConfig(NewBootstrapViper(tempDir))
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if bootstrapCfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", bootstrapCfg.Logging.Level)
	}
	if bootstrapCfg.Logging.LogPath != "/var/log/teleop-console" {
		t.Errorf("Expected log path, got '%s'", bootstrapCfg.Logging.LogPath)
	}
	if bootstrapCfg.Server.Enabled {
		t.Errorf("Expected server disabled")
	}
	if bootstrapCfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected server http_port 9090, got %d", bootstrapCfg.Server.HTTPPort)
	}
	if bootstrapCfg.ZeroMQ.PublishAddress != "tcp://bench:6000" {
		t.Errorf("Expected publish address, got '%s'", bootstrapCfg.ZeroMQ.PublishAddress)
	}
	if bootstrapCfg.ZeroMQ.ReceiveTimeoutMs != 250 {
		t.Errorf("Expected receive_timeout_ms 250, got %d", bootstrapCfg.ZeroMQ.ReceiveTimeoutMs)
	}
	if bootstrapCfg.Panel.PeriodMs != 20 {
		t.Errorf("Expected period_ms 20, got %d", bootstrapCfg.Panel.PeriodMs)
	}
	if got := bootstrapCfg.TopicConfigPath(); got != "/data/console/bench_topics.yaml" {
		t.Errorf("Unexpected topic config path %s", got)
	}
	if got := bootstrapCfg.StylesheetPath(); got != "/data/console/styles/dark.yaml" {
		t.Errorf("Unexpected stylesheet path %s", got)
	}
}

func TestLoadBootstrapConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("TELEOP_CONSOLE_ZEROMQ_SUBSCRIBE_ADDRESS", "tcp://env-host:7001")
	t.Setenv("TELEOP_CONSOLE_PANEL_PERIOD_MS", "100")

	// No file in the directory: defaults apply
	bootstrapCfg, err := LoadBootstrapConfig(NewBootstrapViper(t.TempDir()))
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if bootstrapCfg.ZeroMQ.PublishAddress != "tcp://localhost:5560" {
		t.Errorf("Expected default publish address, got '%s'", bootstrapCfg.ZeroMQ.PublishAddress)
	}
	if bootstrapCfg.ZeroMQ.SubscribeAddress != "tcp://env-host:7001" {
		t.Errorf("Expected env subscribe address, got '%s'", bootstrapCfg.ZeroMQ.SubscribeAddress)
	}
	if bootstrapCfg.Panel.PeriodMs != 100 {
		t.Errorf("Expected env period 100, got %d", bootstrapCfg.Panel.PeriodMs)
	}
	if bootstrapCfg.Panel.Stylesheet != "styles/default.yaml" {
		t.Errorf("Expected default stylesheet, got '%s'", bootstrapCfg.Panel.Stylesheet)
	}
}

func TestLoadBootstrapConfigMissingRequired(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContentMissing := `
zeromq:
  publish_address: ""
  subscribe_address: "tcp://bench:6001"
`
	configPath := filepath.Join(tempDir, BootstrapFileName)
	if err := os.WriteFile(configPath, []byte(bootstrapContentMissing), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	_, err := LoadBootstrapConfig(NewBootstrapViper(tempDir))
	if err == nil {
		t.Fatalf("Expected error when loading bootstrap config with missing required fields, but got nil")
	}

	expectedErrorSubstr := "missing required field in bootstrap config: zeromq.publish_address"
	if !strings.Contains(err.Error(), expectedErrorSubstr) {
		t.Errorf("Expected error message to contain '%s', but got: %v", expectedErrorSubstr, err)
	}
}
