package render

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"notifyd/internal/config"
	"notifyd/internal/domain"
	"notifyd/internal/permanent"
)

// NATSForwarder publishes alerts onto NATS subjects so downstream
// presentation services receive them.
// Subjects: "<prefix>.show.<category>", "<prefix>.clear.<category>" and
// "<prefix>.clear.all".
// Params: NATS connection and subject prefix.
// Returns: renderer forwarding over NATS.
type NATSForwarder struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSForwarder connects and returns the forwarding renderer.
// Params: NATS settings from config.
// Returns: initialized forwarder or connection error.
func NewNATSForwarder(settings config.NATSRenderConfig) (*NATSForwarder, error) {
	nc, err := nats.Connect(strings.Join(settings.URL, ","))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSForwarder{nc: nc, prefix: settings.SubjectPrefix}, nil
}

// Name returns the renderer key for diagnostics.
// Params: none.
// Returns: "nats".
func (r *NATSForwarder) Name() string {
	return "nats"
}

// Show publishes one alert profile.
// Params: resolved profile.
// Returns: permanent error on encode failure, transport error otherwise.
func (r *NATSForwarder) Show(_ context.Context, profile domain.DeliveryProfile) error {
	body, err := json.Marshal(profile)
	if err != nil {
		return permanent.Mark(fmt.Errorf("encode profile: %w", err))
	}
	subject := r.prefix + ".show." + string(profile.Category)
	if err := r.nc.Publish(subject, body); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Clear publishes one category-level clear.
// Params: cleared category.
// Returns: publish error.
func (r *NATSForwarder) Clear(_ context.Context, category domain.Category) error {
	subject := r.prefix + ".clear." + string(category)
	if err := r.nc.Publish(subject, nil); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// ClearAll publishes a full clear.
// Params: none.
// Returns: publish error.
func (r *NATSForwarder) ClearAll(_ context.Context) error {
	subject := r.prefix + ".clear.all"
	if err := r.nc.Publish(subject, nil); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes and closes the connection.
// Params: none.
// Returns: flush error.
func (r *NATSForwarder) Close() error {
	err := r.nc.Flush()
	r.nc.Close()
	return err
}
