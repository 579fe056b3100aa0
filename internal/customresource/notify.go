package customresource

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
)

// Invoke handles the event and, when CloudFormation supplied a pre-signed ResponseURL,
// uploads the record there. Direct invocations (no ResponseURL) only get the return value.
func (h *Handler) Invoke(ctx context.Context, event cfn.Event) (*cfn.Response, error) {
	response, err := h.Handle(ctx, event)
	if err != nil || event.ResponseURL == "" {
		return response, err
	}

	if err := h.notify(ctx, response, &event); err != nil {
		h.logger.WithError(err).WithField("request_id", event.RequestID).Error("Failed to send custom resource response")
		return response, err
	}

	return response, nil
}

// notify sends a copy of the record; CloudFormation rejects an empty PhysicalResourceId,
// so the copy falls back to the log stream name as cfn.LambdaWrap does.
func (h *Handler) notify(ctx context.Context, response *cfn.Response, event *cfn.Event) error {
	sent := *response
	if sent.PhysicalResourceID == "" {
		sent.PhysicalResourceID = physicalResourceID(ctx, event)
	}

	if err := sent.Send(); err != nil {
		return fmt.Errorf("failed to upload response for request %s: %w", event.RequestID, err)
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": event.RequestID,
		"status":     sent.Status,
	}).Info("Custom resource response sent")
	return nil
}

func physicalResourceID(ctx context.Context, event *cfn.Event) string {
	if _, ok := lambdacontext.FromContext(ctx); ok && lambdacontext.LogStreamName != "" {
		return lambdacontext.LogStreamName
	}
	return event.LogicalResourceID
}
