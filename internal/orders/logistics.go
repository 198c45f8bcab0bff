package orders

import (
	"strings"
	"time"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
)

// LogisticsInput replaces the shipment record of an order.
type LogisticsInput struct {
	Carrier        string
	TrackingNumber string
	ContactPhone   *string
}

// CheckpointInput is one tracking event reported by the carrier or the farmer.
type CheckpointInput struct {
	Kind        enums.CheckpointKind
	Status      string
	Description *string
	Location    *string
}

// SetLogistics creates or replaces the shipment record. Existing checkpoints are kept.
func SetLogistics(o *models.Order, in LogisticsInput, now time.Time) (*Changes, error) {
	if o.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeOrderCancelled, "cannot set logistics on a cancelled order")
	}
	carrier := strings.TrimSpace(in.Carrier)
	tracking := strings.TrimSpace(in.TrackingNumber)
	if carrier == "" || tracking == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier and tracking number are required")
	}

	if o.Logistics == nil {
		o.Logistics = &models.OrderLogistics{OrderID: o.ID}
	}
	o.Logistics.Carrier = carrier
	o.Logistics.TrackingNumber = tracking
	o.Logistics.ContactPhone = normalizeNote(in.ContactPhone)
	o.Logistics.UpdatedAt = now

	return &Changes{LogisticsChanged: true}, nil
}

// AppendCheckpoint records a tracking event. A delivered checkpoint completes
// the order when the transition table permits it; from pending or processing
// the checkpoint is stored and the status is left alone.
func AppendCheckpoint(o *models.Order, in CheckpointInput, now time.Time) (*Changes, error) {
	if o.Logistics == nil {
		return nil, pkgerrors.New(pkgerrors.CodeLogisticsNotSet, "logistics information has not been set for this order")
	}
	if o.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeOrderCancelled, "cannot add checkpoints to a cancelled order")
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkpoint status is required")
	}
	kind := in.Kind
	if !kind.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown checkpoint kind %q", in.Kind)
	}

	checkpoint := models.LogisticsCheckpoint{
		OrderID:     o.ID,
		Seq:         len(o.Logistics.Checkpoints) + 1,
		Kind:        kind,
		Status:      status,
		Description: normalizeNote(in.Description),
		Location:    normalizeNote(in.Location),
		OccurredAt:  now,
	}
	o.Logistics.Checkpoints = append(o.Logistics.Checkpoints, checkpoint)
	o.Logistics.UpdatedAt = now

	changes := &Changes{
		Checkpoints:      []models.LogisticsCheckpoint{checkpoint},
		LogisticsChanged: true,
	}

	if kind == enums.CheckpointKindDelivered && o.Status != enums.OrderStatusCompleted &&
		CanTransition(o.Status, enums.OrderStatusCompleted) {
		note := NoteDeliveredCompleted
		completed, err := transition(o, enums.OrderStatusCompleted, &note, now, nil)
		if err != nil {
			return nil, err
		}
		changes.merge(completed)
	}
	return changes, nil
}
