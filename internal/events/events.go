package events

import (
	"context"
	"time"
)

// TopicPrefix is the root subject for every profile change event
const TopicPrefix = "ipconfiger"

// Action describes what happened to a profile collection
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionImported Action = "imported"
)

// Topic builds the subject for a kind and action, e.g. "ipconfiger.network.created".
func Topic(kind string, action Action) string {
	return TopicPrefix + "." + kind + "." + string(action)
}

// AllTopics matches every event published by this application
const AllTopics = TopicPrefix + ".>"

// ProfileChanged is emitted after a mutation has been persisted
type ProfileChanged struct {
	Kind      string    `json:"kind"`
	Action    Action    `json:"action"`
	Names     []string  `json:"names"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
