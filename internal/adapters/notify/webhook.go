package notify

import (
	"bytes"
	"context"
	"delivery-manifest-service/internal/platform/httpx"
	"delivery-manifest-service/internal/platform/obs"
	"delivery-manifest-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookNotifier posts route assignments as JSON to a configured URL.
type WebhookNotifier struct {
	client *httpx.Client
	url    string
}

var _ ports.DriverNotifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(url string, client *httpx.Client) (*WebhookNotifier, error) {
	if url == "" {
		return nil, errors.New("webhook url is empty")
	}
	if client == nil {
		client = httpx.NewClient(5 * time.Second)
	}
	return &WebhookNotifier{client: client, url: url}, nil
}

func (n *WebhookNotifier) NotifyRouteAssigned(ctx context.Context, a ports.RouteAssignment) (err error) {
	defer obs.Time(ctx, "notify.webhook")(&err)

	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode route assignment: %w", err)
	}

	resp, err := n.client.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("post route assignment: %w", err)
	}
	resp.Body.Close()
	return nil
}

// LogNotifier records assignments in the log only. Used when no webhook is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

var _ ports.DriverNotifier = LogNotifier{}

func (n LogNotifier) NotifyRouteAssigned(_ context.Context, a ports.RouteAssignment) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.Info("route assigned",
		zap.String("tenant_id", a.TenantID),
		zap.String("driver_id", a.DriverID),
		zap.String("route_id", a.RouteID),
		zap.Int("stops", a.Stops),
	)
	return nil
}
