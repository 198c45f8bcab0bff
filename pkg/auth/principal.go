package auth

import (
	"github.com/google/uuid"

	"github.com/farmfresh/farmfresh-backend/pkg/enums"
)

// Principal is the verified caller attached to every authenticated request.
type Principal struct {
	UserID          uuid.UUID
	Role            enums.Role
	FarmerProfileID *uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == enums.RoleAdmin
}

func (p Principal) IsFarmer() bool {
	return p.Role == enums.RoleFarmer && p.FarmerProfileID != nil
}

// OwnsFarm reports whether the principal is the farmer behind farmerID.
func (p Principal) OwnsFarm(farmerID uuid.UUID) bool {
	return p.IsFarmer() && *p.FarmerProfileID == farmerID
}
