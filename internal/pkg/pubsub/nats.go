// Package pubsub publishes the actions of the details view to NATS
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"gocloud.dev/pubsub"
	"gocloud.dev/pubsub/natspubsub"
)

const (
	// ActionModal is published when the view asks for a system modal
	ActionModal = "modal"
	// ActionNavigate is published when the view asks to navigate
	ActionNavigate = "navigate"
)

// ActionMessage is the NATS message body for a forwarded view action
type ActionMessage struct {
	ID             uuid.UUID `json:"id"`
	Action         string    `json:"action"`
	LoadBalancerID string    `json:"load_balancer_id"`
	Message        string    `json:"message,omitempty"`
	Path           string    `json:"path,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Forwarder sends modal and navigation requests to their NATS subjects
type Forwarder struct {
	modal    *pubsub.Topic
	navigate *pubsub.Topic
	source   string
	logger   *zap.SugaredLogger
}

// ForwarderOption is a functional configuration option for the Forwarder
type ForwarderOption func(f *Forwarder)

// WithLogger sets the Forwarder logger
func WithLogger(l *zap.SugaredLogger) ForwarderOption {
	return func(f *Forwarder) {
		f.logger = l
	}
}

// WithSource sets the load balancer id attached to every message
func WithSource(id string) ForwarderOption {
	return func(f *Forwarder) {
		f.source = id
	}
}

// NewForwarder creates a Forwarder publishing to the given topics
func NewForwarder(modal, navigate *pubsub.Topic, opts ...ForwarderOption) *Forwarder {
	f := &Forwarder{
		modal:    modal,
		navigate: navigate,
		logger:   zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// OpenNATSForwarder opens the <prefix>.modal and <prefix>.navigate topics on nc
func OpenNATSForwarder(nc *nats.Conn, subjectPrefix string, opts ...ForwarderOption) (*Forwarder, error) {
	if nc == nil || nc.IsClosed() {
		return nil, ErrNATSConnClosed
	}

	modal, err := natspubsub.OpenTopic(nc, subjectPrefix+"."+ActionModal, nil)
	if err != nil {
		return nil, err
	}

	navigate, err := natspubsub.OpenTopic(nc, subjectPrefix+"."+ActionNavigate, nil)
	if err != nil {
		_ = modal.Shutdown(context.Background())
		return nil, err
	}

	return NewForwarder(modal, navigate, opts...), nil
}

// OpenSystemModal publishes a modal request carrying message
func (f *Forwarder) OpenSystemModal(ctx context.Context, message string) error {
	return f.send(ctx, f.modal, ActionMessage{
		Action:  ActionModal,
		Message: message,
	})
}

// Navigate publishes a navigation request to path
func (f *Forwarder) Navigate(ctx context.Context, path string) error {
	return f.send(ctx, f.navigate, ActionMessage{
		Action: ActionNavigate,
		Path:   path,
	})
}

func (f *Forwarder) send(ctx context.Context, topic *pubsub.Topic, msg ActionMessage) error {
	msg.ID = uuid.New()
	msg.LoadBalancerID = f.source
	msg.Timestamp = time.Now().UTC()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := topic.Send(ctx, &pubsub.Message{
		Body: body,
		Metadata: map[string]string{
			"action":           msg.Action,
			"load_balancer_id": msg.LoadBalancerID,
		},
	}); err != nil {
		f.logger.Errorw("failed to publish view action", "action", msg.Action, "error", err)
		return err
	}

	f.logger.Debugw("published view action", "action", msg.Action, "msg_id", msg.ID)

	return nil
}

// Close shuts down both topics
func (f *Forwarder) Close(ctx context.Context) error {
	f.logger.Info("shutting down NATS topics")

	return errors.Join(f.modal.Shutdown(ctx), f.navigate.Shutdown(ctx))
}
