package services

import (
	"context"
	"delivery-manifest-service/internal/domain"
	"delivery-manifest-service/internal/platform/logging"
	"delivery-manifest-service/internal/platform/obs"
	"delivery-manifest-service/internal/ports"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type StatusUpdate struct {
	Status   domain.DeliveryStatus
	ProofRef string
	Reason   string
}

// DeliveryStatusService applies delivery transitions and keeps the route
// status in step with its deliveries.
type DeliveryStatusService struct {
	store  ports.DeliveryStore
	now    func() time.Time
	logger *zap.Logger
}

func NewDeliveryStatusService(store ports.DeliveryStore, logger *zap.Logger, now func() time.Time) *DeliveryStatusService {
	if now == nil {
		now = time.Now
	}
	return &DeliveryStatusService{store: store, now: now, logger: logging.OrNop(logger)}
}

// Update moves one delivery to a new status.
//
// The first movement on a PLANNED route makes it ACTIVE; once every delivery
// is DELIVERED or RETURNED an ACTIVE route becomes COMPLETED.
func (s *DeliveryStatusService) Update(
	ctx context.Context,
	tenantID string,
	deliveryID string,
	u StatusUpdate,
) (_ *domain.Delivery, err error) {
	defer obs.Time(ctx, "deliveries.Update")(&err)

	d, err := s.store.GetDelivery(ctx, tenantID, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("update delivery status: %w", err)
	}

	if err := d.Transition(u.Status, s.now(), u.ProofRef, u.Reason); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDeliveryStatus(ctx, d); err != nil {
		return nil, fmt.Errorf("update delivery status: %w", err)
	}

	if err := s.advanceRoute(ctx, tenantID, d.RouteID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DeliveryStatusService) advanceRoute(ctx context.Context, tenantID, routeID string) error {
	route, err := s.store.GetRoute(ctx, tenantID, routeID)
	if err != nil {
		return fmt.Errorf("advance route: %w", err)
	}

	from := route.Status
	if route.Status == domain.RoutePlanned {
		if err := route.Transition(domain.RouteActive); err != nil {
			return err
		}
	}

	if route.Status == domain.RouteActive {
		deliveries, err := s.store.ListRouteDeliveries(ctx, tenantID, routeID)
		if err != nil {
			return fmt.Errorf("advance route: %w", err)
		}
		done := len(deliveries) > 0
		for _, d := range deliveries {
			if !d.Status.IsTerminal() {
				done = false
				break
			}
		}
		if done {
			if err := route.Transition(domain.RouteCompleted); err != nil {
				return err
			}
		}
	}

	if route.Status == from {
		return nil
	}
	if err := s.store.UpdateRouteStatus(ctx, route); err != nil {
		return fmt.Errorf("advance route: %w", err)
	}

	s.logger.Info("route status changed",
		zap.String("route_id", route.ID),
		zap.String("from", string(from)),
		zap.String("to", string(route.Status)),
	)
	return nil
}
