package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/skyhook-io/snapshot-exporter/internal/domain"
)

type NotificationSink interface {
	Enqueue(notification domain.SnapshotNotification) error
}

type SnsApi interface {
	ConfirmSubscription(ctx context.Context, params *sns.ConfirmSubscriptionInput, optFns ...func(*sns.Options)) (*sns.ConfirmSubscriptionOutput, error)
}

// SnsHandler terminates the notification transport: it confirms topic
// subscriptions and feeds delivered event messages into the trigger engine.
type SnsHandler struct {
	sink NotificationSink
	sns  SnsApi
}

func NewSnsHandler(sink NotificationSink, snsApi SnsApi) SnsHandler {
	return SnsHandler{
		sink: sink,
		sns:  snsApi,
	}
}

func (h SnsHandler) Receive(response http.ResponseWriter, request *http.Request) {
	var envelope domain.Envelope
	err := json.NewDecoder(request.Body).Decode(&envelope)
	if err != nil {
		logger.Warnf("Unable to decode delivery body: %v", err)
		http.Error(response, "malformed delivery", http.StatusBadRequest)
		return
	}

	switch envelope.Type {
	case domain.EnvelopeSubscriptionConfirmation:
		h.confirm(request.Context(), envelope, response)
	case domain.EnvelopeNotification:
		h.notify(envelope, response)
	default:
		logger.Infof("Ignoring delivery of type %s", envelope.Type)
		response.WriteHeader(http.StatusOK)
	}
}

func (h SnsHandler) confirm(ctx context.Context, envelope domain.Envelope, response http.ResponseWriter) {
	_, err := h.sns.ConfirmSubscription(ctx, &sns.ConfirmSubscriptionInput{
		Token:    aws.String(envelope.Token),
		TopicArn: aws.String(envelope.TopicArn),
	})
	if err != nil {
		logger.Errorf("Unable to confirm subscription to %s: %v", envelope.TopicArn, err)
		http.Error(response, "confirmation failed", http.StatusBadGateway)
		return
	}

	logger.Infof("Confirmed subscription to %s", envelope.TopicArn)
	response.WriteHeader(http.StatusOK)
}

func (h SnsHandler) notify(envelope domain.Envelope, response http.ResponseWriter) {
	notification, err := domain.ParseNotification(envelope)

	var malformed domain.MalformedNotificationError
	if errors.As(err, &malformed) {
		// not retriable, so acknowledge the delivery and drop it
		logger.Warn(malformed)
		response.WriteHeader(http.StatusOK)
		return
	}

	err = h.sink.Enqueue(notification)
	if err != nil {
		logger.Errorf("Unable to accept notification %s: %v", envelope.MessageID, err)
		http.Error(response, "not accepting notifications", http.StatusServiceUnavailable)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (h SnsHandler) Health(response http.ResponseWriter, request *http.Request) {
	response.WriteHeader(http.StatusOK)
}
