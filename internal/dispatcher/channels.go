package dispatcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/stockpulse/stockpulse/internal/config"
	"github.com/stockpulse/stockpulse/internal/hub"
	"github.com/stockpulse/stockpulse/internal/models"
)

// Deliverer attempts delivery of a persisted notification over one channel.
type Deliverer interface {
	Method() models.NotificationMethod
	Deliver(ctx context.Context, n *models.Notification) error
}

// InAppDeliverer offers notifications to the real-time hub. "Delivered"
// means persisted and offered to the user's group; a user with no open
// connection still sees the notification through the inbox listing.
type InAppDeliverer struct {
	hub *hub.Hub
}

// NewInAppDeliverer creates the in-app delivery channel
func NewInAppDeliverer(h *hub.Hub) *InAppDeliverer {
	return &InAppDeliverer{hub: h}
}

func (d *InAppDeliverer) Method() models.NotificationMethod {
	return models.MethodInApp
}

func (d *InAppDeliverer) Deliver(_ context.Context, n *models.Notification) error {
	d.hub.NotifyUser(n.UserID, n)
	return nil
}

// EmailDirectory resolves a user id to a deliverable email address.
type EmailDirectory interface {
	ResolveEmail(userID string) (string, error)
}

// EmailDeliverer sends notifications through an HTTP email relay.
type EmailDeliverer struct {
	client    *resty.Client
	cfg       config.EmailConfig
	directory EmailDirectory
}

// NewEmailDeliverer creates the email delivery channel
func NewEmailDeliverer(cfg config.EmailConfig, directory EmailDirectory) *EmailDeliverer {
	return &EmailDeliverer{
		client:    resty.New().SetTimeout(10 * time.Second),
		cfg:       cfg,
		directory: directory,
	}
}

func (d *EmailDeliverer) Method() models.NotificationMethod {
	return models.MethodEmail
}

func (d *EmailDeliverer) Deliver(ctx context.Context, n *models.Notification) error {
	address, err := d.directory.ResolveEmail(n.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve address: %w", err)
	}

	payload := map[string]interface{}{
		"from":    d.cfg.FromAddress,
		"to":      address,
		"subject": n.Title,
		"body":    n.Message,
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(d.cfg.Token).
		SetBody(payload).
		Post(d.cfg.RelayURL)

	if err != nil {
		return fmt.Errorf("email relay request failed: %w", err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("email relay returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return nil
}

// PushDeliverer is reserved for device push. It reports success so the
// record is persisted, but no device-level delivery happens.
type PushDeliverer struct{}

// NewPushDeliverer creates the push delivery channel stub
func NewPushDeliverer() *PushDeliverer {
	return &PushDeliverer{}
}

func (d *PushDeliverer) Method() models.NotificationMethod {
	return models.MethodPush
}

func (d *PushDeliverer) Deliver(_ context.Context, _ *models.Notification) error {
	return nil
}
