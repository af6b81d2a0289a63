package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	EnvelopeSubscriptionConfirmation = "SubscriptionConfirmation"
	EnvelopeNotification             = "Notification"
)

// Envelope is the SNS delivery wrapper around an event message.
type Envelope struct {
	Type         string   `json:"Type"`
	MessageID    string   `json:"MessageId"`
	TopicArn     string   `json:"TopicArn"`
	Subject      string   `json:"Subject"`
	Message      string   `json:"Message"`
	Timestamp    JsonTime `json:"Timestamp"`
	Token        string   `json:"Token"`
	SubscribeURL string   `json:"SubscribeURL"`
}

// EventMessage is the RDS event notification carried in an Envelope's
// Message field. The "Event ID" value is a documentation link whose fragment
// holds the actual identifier.
type EventMessage struct {
	EventSource  string `json:"Event Source"`
	EventTime    string `json:"Event Time"`
	SourceID     string `json:"Source ID"`
	SourceARN    string `json:"Source ARN"`
	EventID      string `json:"Event ID"`
	EventMessage string `json:"Event Message"`
}

type MalformedNotificationError struct {
	MessageID string
	Base      error
}

func (e MalformedNotificationError) Error() string {
	return fmt.Sprintf("unable to parse event message %s: %v", e.MessageID, e.Base)
}

// SnapshotNotification is the parsed, typed form of one lifecycle
// notification as it flows through the trigger pipeline.
type SnapshotNotification struct {
	EventID   EventID
	SourceID  string
	SourceARN string
	MessageID string
	Timestamp time.Time
	Message   string
}

// ParseNotification decodes the RDS event message out of an SNS envelope.
func ParseNotification(envelope Envelope) (SnapshotNotification, error) {
	var message EventMessage
	err := json.Unmarshal([]byte(envelope.Message), &message)
	if err != nil {
		return SnapshotNotification{}, MalformedNotificationError{MessageID: envelope.MessageID, Base: err}
	}

	if message.EventID == "" || message.SourceID == "" {
		return SnapshotNotification{}, MalformedNotificationError{
			MessageID: envelope.MessageID,
			Base:      fmt.Errorf("missing Event ID or Source ID"),
		}
	}

	return SnapshotNotification{
		EventID:   ParseEventID(message.EventID),
		SourceID:  message.SourceID,
		SourceARN: message.SourceARN,
		MessageID: envelope.MessageID,
		Timestamp: time.Time(envelope.Timestamp),
		Message:   message.EventMessage,
	}, nil
}

// ParseEventID extracts the event identifier from the documentation link the
// provider sends, e.g. "https://docs.aws.../Events.html#RDS-EVENT-0091".
func ParseEventID(link string) EventID {
	if i := strings.LastIndex(link, "#"); i >= 0 {
		return EventID(link[i+1:])
	}

	return EventID(link)
}

type JsonTime time.Time

const timeFormat = "2006-01-02T15:04:05.999Z"

func (t JsonTime) MarshalJSON() ([]byte, error) {
	return []byte("\"" + time.Time(t).Format(timeFormat) + "\""), nil
}

func (t *JsonTime) UnmarshalJSON(bytes []byte) error {
	newTime, err := time.Parse(timeFormat, strings.Trim(string(bytes), "\""))
	if err != nil {
		return err
	}

	*t = JsonTime(newTime)
	return nil
}
