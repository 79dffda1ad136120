package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownTopic is returned for a topic that names no entity type
var ErrUnknownTopic = errors.New("unknown topic")

var knownTopics = map[EntityType]struct{}{
	EntityTypeLoan:       {},
	EntityTypeCollection: {},
	EntityTypeInvestment: {},
	EntityTypeExpense:    {},
	EntityTypePending:    {},
}

// Topics is the set of entity types a subscriber receives. An empty set
// receives everything.
type Topics map[EntityType]struct{}

// ParseTopics parses topic names such as "pending" or "collection"
func ParseTopics(names []string) (Topics, error) {
	topics := make(Topics, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		entity := EntityType(name)
		if _, ok := knownTopics[entity]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, name)
		}
		topics[entity] = struct{}{}
	}
	return topics, nil
}

// Wants reports whether an event about entity should be delivered
func (t Topics) Wants(entity EntityType) bool {
	if len(t) == 0 || entity == EntityTypeSystem {
		return true
	}
	_, ok := t[entity]
	return ok
}

// Names lists the topics, for the connected acknowledgement
func (t Topics) Names() []string {
	names := make([]string, 0, len(t))
	for entity := range knownTopics {
		if _, ok := t[entity]; ok {
			names = append(names, string(entity))
		}
	}
	sort.Strings(names)
	return names
}

// Command actions a client may send
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

// Command is an inbound client message, e.g.
// {"action":"subscribe","topics":["pending"]}
type Command struct {
	Action string   `json:"action"`
	Topics []string `json:"topics,omitempty"`
}

// ParseCommand decodes an inbound frame
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("malformed command: %w", err)
	}
	cmd.Action = strings.ToLower(strings.TrimSpace(cmd.Action))
	switch cmd.Action {
	case ActionSubscribe, ActionUnsubscribe, ActionPing:
		return cmd, nil
	}
	return Command{}, fmt.Errorf("unsupported action %q", cmd.Action)
}

// apply returns the topic set after cmd. ping leaves it unchanged.
func (t Topics) apply(cmd Command) (Topics, error) {
	if cmd.Action == ActionPing {
		return t, nil
	}
	changed, err := ParseTopics(cmd.Topics)
	if err != nil {
		return t, err
	}
	next := make(Topics, len(t)+len(changed))
	for entity := range t {
		next[entity] = struct{}{}
	}
	for entity := range changed {
		if cmd.Action == ActionSubscribe {
			next[entity] = struct{}{}
		} else {
			delete(next, entity)
		}
	}
	return next, nil
}
