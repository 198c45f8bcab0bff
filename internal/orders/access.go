package orders

import (
	"slices"

	"github.com/farmfresh/farmfresh-backend/pkg/auth"
	"github.com/farmfresh/farmfresh-backend/pkg/db/models"
	"github.com/farmfresh/farmfresh-backend/pkg/enums"
	pkgerrors "github.com/farmfresh/farmfresh-backend/pkg/errors"
)

// Action is something an actor may try to do with an order.
type Action string

const (
	ActionView             Action = "view"
	ActionCancel           Action = "cancel"
	ActionUpdateStatus     Action = "update_status"
	ActionConfirmReceipt   Action = "confirm_receipt"
	ActionManageLogistics  Action = "manage_logistics"
	ActionApplyAfterSale   Action = "apply_after_sale"
	ActionProcessAfterSale Action = "process_after_sale"
)

var roleActions = map[enums.Role][]Action{
	enums.RoleCustomer: {ActionView, ActionCancel, ActionConfirmReceipt, ActionApplyAfterSale},
	enums.RoleFarmer:   {ActionView, ActionCancel, ActionUpdateStatus, ActionManageLogistics, ActionProcessAfterSale},
	enums.RoleAdmin: {
		ActionView, ActionCancel, ActionUpdateStatus, ActionConfirmReceipt,
		ActionManageLogistics, ActionApplyAfterSale, ActionProcessAfterSale,
	},
}

// HasAccess reports whether the actor may see the order at all.
func HasAccess(actor auth.Principal, o *models.Order) bool {
	if o == nil {
		return false
	}
	switch actor.Role {
	case enums.RoleAdmin:
		return true
	case enums.RoleCustomer:
		return actor.UserID == o.CustomerID
	case enums.RoleFarmer:
		return actor.OwnsFarm(o.FarmerID)
	}
	return false
}

// RoleAllows reports whether the role matrix grants the action.
func RoleAllows(role enums.Role, action Action) bool {
	return slices.Contains(roleActions[role], action)
}

// Can is the authorization gate for order commands.
func Can(actor auth.Principal, action Action, o *models.Order) bool {
	return HasAccess(actor, o) && RoleAllows(actor.Role, action)
}

// Authorize is Can with errors: orders the actor cannot see are reported as
// missing.
func Authorize(actor auth.Principal, action Action, o *models.Order) error {
	if !HasAccess(actor, o) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !RoleAllows(actor.Role, action) {
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "role %s may not %s this order", actor.Role, action)
	}
	return nil
}
