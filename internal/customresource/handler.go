// Package customresource implements the CloudFormation custom-resource handler that
// bootstraps the database user.
//
// Every lifecycle request (Create, Update, Delete) runs the same path: acquire a session,
// execute the script, report the outcome, release the session. Failures are reported in the
// response record, never as a Go error, so the orchestrator always receives a
// SUCCESS or FAILED status with a readable reason.
package customresource

import (
	"context"
	"fmt"

	"rds-user-initializer/internal/database"
	"rds-user-initializer/internal/scripts"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/sirupsen/logrus"
)

// Session is one database session with explicit acquire (Connect) and release (Close).
// Close must be safe to call when Connect failed or was never called.
type Session interface {
	Connect(ctx context.Context) error
	Exec(ctx context.Context, script *scripts.Script) (*database.ExecResult, error)
	Close() error
}

// SessionFactory returns a new unconnected session
type SessionFactory func() Session

// Handler handles custom-resource lifecycle events
type Handler struct {
	newSession SessionFactory
	script     *scripts.Script
	logger     *logrus.Logger
}

// NewHandler creates a new custom-resource handler running script on every event
func NewHandler(newSession SessionFactory, script *scripts.Script, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}

	return &Handler{
		newSession: newSession,
		script:     script,
		logger:     logger,
	}
}

// Handle runs the script for the event and returns the response record.
// The session is released exactly once, after the record is built.
func (h *Handler) Handle(ctx context.Context, event cfn.Event) (*cfn.Response, error) {
	logger := h.logger.WithFields(logrus.Fields{
		"request_id":          event.RequestID,
		"request_type":        event.RequestType,
		"logical_resource_id": event.LogicalResourceID,
		"stack_id":            event.StackID,
	})
	logger.Info("Handling custom resource request")

	session := h.newSession()
	defer h.release(session, logger)

	response := newResponse(&event)

	result, err := h.run(ctx, session)
	if err != nil {
		logger.WithError(err).Error("Custom resource request failed")
		response.Status = cfn.StatusFailed
		response.Reason = err.Error()
		return response, nil
	}

	logger.WithField("rows_affected", result.RowsAffected).Info("Custom resource request succeeded")
	response.Status = cfn.StatusSuccess
	response.Data = result.Data()
	return response, nil
}

func (h *Handler) run(ctx context.Context, session Session) (result *database.ExecResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	if h.script == nil {
		return nil, fmt.Errorf("no init script loaded")
	}

	if err := session.Connect(ctx); err != nil {
		return nil, err
	}

	return session.Exec(ctx, h.script)
}

func (h *Handler) release(session Session, logger *logrus.Entry) {
	if err := session.Close(); err != nil {
		logger.WithError(err).Warn("Failed to release database session")
	}
}

// newResponse echoes the event identifiers into a fresh response record
func newResponse(event *cfn.Event) *cfn.Response {
	response := cfn.NewResponse(event)
	response.RequestID = event.RequestID
	response.LogicalResourceID = event.LogicalResourceID
	response.PhysicalResourceID = event.PhysicalResourceID
	response.StackID = event.StackID
	return response
}
