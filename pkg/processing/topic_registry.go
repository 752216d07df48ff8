package processing

import (
	"sort"
	"sync"

	"github.com/open-teleop/teleop-console/pkg/config"
	customlog "github.com/open-teleop/teleop-console/pkg/log"
)

// PriorityStandard is assigned to topics whose mapping names no priority.
const PriorityStandard = "STANDARD"

// TopicInfo holds metadata for a topic
type TopicInfo struct {
	TopicID      string `json:"topic_id"`
	Topic        string `json:"topic"`
	MessageType  string `json:"message_type"`
	Priority     string `json:"priority"`
	Direction    string `json:"direction"`
	StatCount    int64  `json:"count"`
	ErrorCount   int64  `json:"errors"`
	LastReceived int64  `json:"last_timestamp_ns"`
}

// TopicRegistry maintains information about topics
type TopicRegistry struct {
	logger customlog.Logger
	topics map[string]*TopicInfo
	mu     sync.RWMutex
}

// NewTopicRegistry creates a new topic registry
func NewTopicRegistry(logger customlog.Logger) *TopicRegistry {
	return &TopicRegistry{
		logger: logger,
		topics: make(map[string]*TopicInfo),
	}
}

// LoadFromConfig loads topic information from the config
func (r *TopicRegistry) LoadFromConfig(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.topics
	r.topics = make(map[string]*TopicInfo)

	for _, mapping := range cfg.ResolvedMappings() {
		priority := mapping.Priority
		if priority == "" {
			priority = PriorityStandard
		}

		info := &TopicInfo{
			TopicID:     mapping.TopicID,
			Topic:       mapping.Topic,
			MessageType: mapping.MessageType,
			Priority:    priority,
			Direction:   mapping.Direction,
		}
		// counters survive a reload
		if old, ok := previous[mapping.Topic]; ok {
			info.StatCount = old.StatCount
			info.ErrorCount = old.ErrorCount
			info.LastReceived = old.LastReceived
		}
		r.topics[mapping.Topic] = info
	}

	r.logger.Infof("Loaded %d topics into registry", len(r.topics))
}

// GetTopicInfo gets information for a topic
func (r *TopicRegistry) GetTopicInfo(topic string) (*TopicInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return nil, false
	}

	// Return a copy to avoid race conditions
	infoCopy := *info
	return &infoCopy, true
}

// UpdateTopicStats updates statistics for a topic
func (r *TopicRegistry) UpdateTopicStats(topic string, timestamp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := r.getOrCreate(topic)
	info.StatCount++
	info.LastReceived = timestamp
}

// RecordError counts a failed publish or an undecodable delivery on topic.
func (r *TopicRegistry) RecordError(topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.getOrCreate(topic).ErrorCount++
}

func (r *TopicRegistry) getOrCreate(topic string) *TopicInfo {
	info, exists := r.topics[topic]
	if !exists {
		r.logger.Debugf("Registering unconfigured topic '%s'", topic)
		info = &TopicInfo{
			Topic:    topic,
			Priority: PriorityStandard,
		}
		r.topics[topic] = info
	}
	return info
}

// GetAllTopics returns a sorted list of all registered topics
func (r *TopicRegistry) GetAllTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Stats returns a copy of every topic's info, sorted by topic name
func (r *TopicRegistry) Stats() []TopicInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]TopicInfo, 0, len(r.topics))
	for _, info := range r.topics {
		stats = append(stats, *info)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Topic < stats[j].Topic })
	return stats
}
