// Package realtime relays table change notifications to live views.
package realtime

import (
	"strings"
	"time"
)

// EventType is the kind of row change.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	// EventAll matches every change when used as a filter.
	EventAll EventType = "*"
)

// ParseEventType maps a query value to a filter; empty means all.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(strings.ToUpper(strings.TrimSpace(s))); t {
	case "", EventAll:
		return EventAll, true
	case EventInsert, EventUpdate, EventDelete:
		return t, true
	}
	return "", false
}

// Tables that publish changes.
const (
	TableProfiles   = "profiles"
	TableRooms      = "rooms"
	TableBeds       = "beds"
	TableStudents   = "students"
	TableComplaints = "complaints"
	TableNotices    = "notices"
	TableRent       = "rent"
)

// Tables lists every table a client may subscribe to.
var Tables = []string{TableProfiles, TableRooms, TableBeds, TableStudents, TableComplaints, TableNotices, TableRent}

// KnownTable reports whether name is one of Tables.
func KnownTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}

// Event says that something changed in Table. It carries no row data;
// receivers re-read what they display.
type Event struct {
	Table      string    `json:"table"`
	Type       EventType `json:"type"`
	At         time.Time `json:"at"`
	InstanceID string    `json:"instance_id,omitempty"`
}

// Changed builds one event per table for the same change type.
func Changed(t EventType, tables ...string) []Event {
	now := time.Now().UTC()
	events := make([]Event, len(tables))
	for i, table := range tables {
		events[i] = Event{Table: table, Type: t, At: now}
	}
	return events
}
