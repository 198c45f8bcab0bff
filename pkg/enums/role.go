package enums

import "slices"

// Role is the platform role carried by access tokens.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleFarmer   Role = "farmer"
	RoleAdmin    Role = "admin"
)

var validRoles = []Role{RoleCustomer, RoleFarmer, RoleAdmin}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return slices.Contains(validRoles, r)
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func ParseRole(value string) (Role, error) {
	return parseEnum(validRoles, "role", value)
}
