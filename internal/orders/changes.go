package orders

import (
	"time"

	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
)

// StatusChange is one status move made while handling a command.
type StatusChange struct {
	From enums.OrderStatus
	To   enums.OrderStatus
	Note *string
	At   time.Time
}

// Changes records what an engine call did to the aggregate so the repository
// writes only the rows that moved.
type Changes struct {
	StatusChanges    []StatusChange
	History          []models.OrderStatusEvent
	Checkpoints      []models.LogisticsCheckpoint
	LogisticsChanged bool
	AfterSaleChanged bool
}

// Empty reports whether nothing needs to be persisted.
func (c *Changes) Empty() bool {
	return c == nil ||
		(len(c.StatusChanges) == 0 && len(c.History) == 0 && len(c.Checkpoints) == 0 &&
			!c.LogisticsChanged && !c.AfterSaleChanged)
}

func (c *Changes) merge(other *Changes) {
	if other == nil {
		return
	}
	c.StatusChanges = append(c.StatusChanges, other.StatusChanges...)
	c.History = append(c.History, other.History...)
	c.Checkpoints = append(c.Checkpoints, other.Checkpoints...)
	c.LogisticsChanged = c.LogisticsChanged || other.LogisticsChanged
	c.AfterSaleChanged = c.AfterSaleChanged || other.AfterSaleChanged
}

// setStatus moves the order and appends the matching history row.
func (c *Changes) setStatus(o *models.Order, to enums.OrderStatus, note *string, now time.Time) {
	from := o.Status
	o.Status = to
	c.appendHistory(o, to, note, now)
	c.StatusChanges = append(c.StatusChanges, StatusChange{From: from, To: to, Note: note, At: now})
}

func (c *Changes) appendHistory(o *models.Order, status enums.OrderStatus, note *string, now time.Time) {
	event := models.OrderStatusEvent{
		OrderID:    o.ID,
		Seq:        len(o.History) + 1,
		Status:     status,
		Note:       note,
		OccurredAt: now,
	}
	o.History = append(o.History, event)
	c.History = append(c.History, event)
}
