package domain

// Role enumerates the portal roles.
type Role string

const (
	RoleColaborador Role = "colaborador"
	RoleGestor      Role = "gestor"
	RoleSuperAdmin  Role = "super_admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleColaborador, RoleGestor, RoleSuperAdmin:
		return true
	}
	return false
}
