package enums

import "fmt"

// MessageStatus tracks an outgoing WhatsApp message through the send queue.
type MessageStatus string

const (
	MessageStatusQueued  MessageStatus = "queued"
	MessageStatusSending MessageStatus = "sending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

var validMessageStatuses = []MessageStatus{
	MessageStatusQueued,
	MessageStatusSending,
	MessageStatusSent,
	MessageStatusFailed,
}

func (s MessageStatus) String() string {
	return string(s)
}

func (s MessageStatus) IsValid() bool {
	for _, candidate := range validMessageStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseMessageStatus(value string) (MessageStatus, error) {
	for _, candidate := range validMessageStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message status %q", value)
}

// InstanceStatus reflects a WhatsApp gateway instance's connection state.
type InstanceStatus string

const (
	InstanceStatusConnected    InstanceStatus = "connected"
	InstanceStatusDisconnected InstanceStatus = "disconnected"
)

func (s InstanceStatus) IsValid() bool {
	return s == InstanceStatusConnected || s == InstanceStatusDisconnected
}
