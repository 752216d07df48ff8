package processing

import (
	"io"
	"testing"

	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
)

func TestTopicRegistry(t *testing.T) {
	r := NewTopicRegistry(customlog.NewWriterLogger("error", io.Discard))
	r.LoadFromConfig(config.DefaultConfig())

	topics := r.GetAllTopics()
	if len(topics) != 6 {
		t.Fatalf("Expected 6 topics, got %d", len(topics))
	}

	enable := "/irk_teleop/enable"
	if info, ok := r.GetTopicInfo(enable); !ok || info.Priority != "HIGH" {
		t.Errorf("Expected HIGH priority for %s, got %+v", enable, info)
	}
	if info, ok := r.GetTopicInfo("/irk_psm/control_mode"); !ok || info.MessageType != "std_msgs/msg/Int8" {
		t.Errorf("Unexpected info %+v", info)
	}

	r.UpdateTopicStats(enable, 100)
	r.UpdateTopicStats(enable, 200)
	r.RecordError(enable)

	info, ok := r.GetTopicInfo(enable)
	if !ok {
		t.Fatalf("Expected %s to be registered", enable)
	}
	if info.StatCount != 2 || info.LastReceived != 200 || info.ErrorCount != 1 {
		t.Errorf("Unexpected stats: %+v", info)
	}
	if info.Direction != config.DirectionOutbound {
		t.Errorf("Expected OUTBOUND, got %s", info.Direction)
	}

	// unconfigured topics are tracked too
	r.UpdateTopicStats("configuration.notification", 300)
	if len(r.Stats()) != 7 {
		t.Errorf("Expected 7 topics after notification, got %d", len(r.Stats()))
	}
	if info, _ := r.GetTopicInfo("configuration.notification"); info.Priority != PriorityStandard {
		t.Errorf("Expected STANDARD priority for unconfigured topic, got %s", info.Priority)
	}

	// reload keeps counters of surviving topics
	r.LoadFromConfig(config.DefaultConfig())
	info, _ = r.GetTopicInfo(enable)
	if info.StatCount != 2 {
		t.Errorf("Expected counters to survive reload, got %d", info.StatCount)
	}
	if _, ok := r.GetTopicInfo("configuration.notification"); ok {
		t.Errorf("Expected unconfigured topic to be dropped on reload")
	}

	stats := r.Stats()
	for i := 1; i < len(stats); i++ {
		if stats[i-1].Topic > stats[i].Topic {
			t.Fatalf("Stats not sorted at %d", i)
		}
	}
}
