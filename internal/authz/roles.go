package authz

const (
	RoleAttorney   = "attorney"
	RoleParalegal  = "paralegal"
	RoleConsultant = "consultant"
	RoleAdmin      = "admin"
)

func IsKnownRole(role string) bool {
	switch role {
	case RoleAttorney, RoleParalegal, RoleConsultant, RoleAdmin:
		return true
	}
	return false
}

// CanManageScheduler gates the admin control surface.
func CanManageScheduler(role string) bool {
	return role == RoleAdmin || role == RoleAttorney
}
