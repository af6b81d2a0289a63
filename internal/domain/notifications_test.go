package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/skyhook-io/snapshot-exporter/internal/domain"
	"github.com/stretchr/testify/assert"
)

const envelopeExample = `{
	"Type": "Notification",
	"MessageId": "fb459631-7624-5a1e-9f22-325f83d0b087",
	"TopicArn": "arn:aws:sns:us-west-2:271828182845:orders-db-snapshots",
	"Subject": "RDS Notification Message",
	"Message": "{\"Event Source\":\"db-snapshot\",\"Event Time\":\"2022-06-12 09:15:41.132\",\"Source ID\":\"rds:orders-2022-06-12-09-15\",\"Source ARN\":\"arn:aws:rds:us-west-2:271828182845:snapshot:rds:orders-2022-06-12-09-15\",\"Event ID\":\"http://docs.amazonaws.cn/AmazonRDS/latest/UserGuide/USER_Events.html#RDS-EVENT-0091\",\"Event Message\":\"Automated snapshot created\"}",
	"Timestamp": "2022-06-12T09:15:43.412Z"
}`

func TestParseNotification(t *testing.T) {
	var envelope domain.Envelope
	err := json.Unmarshal([]byte(envelopeExample), &envelope)
	if err != nil {
		t.Fatalf("Unable to unmarshall: %v", err)
	}

	notification, err := domain.ParseNotification(envelope)
	assert.NoError(t, err)

	assert.Equal(t, domain.AutomatedInstanceSnapshotCreated, notification.EventID)
	assert.Equal(t, "rds:orders-2022-06-12-09-15", notification.SourceID)
	assert.Equal(t, "arn:aws:rds:us-west-2:271828182845:snapshot:rds:orders-2022-06-12-09-15", notification.SourceARN)
	assert.Equal(t, "fb459631-7624-5a1e-9f22-325f83d0b087", notification.MessageID)
	assert.Equal(t, "Automated snapshot created", notification.Message)
	assert.Equal(t, time.Date(2022, 6, 12, 9, 15, 43, 412000000, time.UTC), notification.Timestamp)
}

func TestParseNotificationRejectsNonJsonMessage(t *testing.T) {
	envelope := domain.Envelope{
		MessageID: "message-1",
		Message:   "not json",
	}

	_, err := domain.ParseNotification(envelope)

	var malformed domain.MalformedNotificationError
	assert.ErrorAs(t, err, &malformed)
	assert.Equal(t, "message-1", malformed.MessageID)
}

func TestParseNotificationRejectsMissingFields(t *testing.T) {
	envelope := domain.Envelope{
		MessageID: "message-2",
		Message:   `{"Event Message":"no id or source"}`,
	}

	_, err := domain.ParseNotification(envelope)
	assert.Error(t, err)
}

func TestParseEventID(t *testing.T) {
	assert.Equal(t, domain.ManualSnapshotCreated,
		domain.ParseEventID("http://docs.amazonaws.cn/AmazonRDS/latest/UserGuide/USER_Events.html#RDS-EVENT-0042"))
	assert.Equal(t, domain.EventID("RDS-EVENT-0060"), domain.ParseEventID("RDS-EVENT-0060"))
}
