package tui

import "github.com/julianknutsen/octscan/internal/relay"

// eventMsg carries one relayed worker event.
type eventMsg struct {
	msg relay.Message
}

// eventsClosedMsg reports that the hub subscription ended.
type eventsClosedMsg struct{}

// outcomeMsg carries the finished prediction.
type outcomeMsg struct {
	outcome relay.Outcome
}
