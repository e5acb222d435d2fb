package auth

// Admin-realm role constants. The chain indexer sidecar authenticates in
// the admin realm with the indexer role; it may feed events but never
// touch player state directly.
const (
	RoleViewer     = "viewer"
	RoleGameMaster = "gamemaster"
	RoleIndexer    = "indexer"
	RoleSuperAdmin = "superadmin"
)

// AllAdminRoles returns every valid admin-realm role.
func AllAdminRoles() []string {
	return []string{RoleViewer, RoleGameMaster, RoleIndexer, RoleSuperAdmin}
}

// WriteRoles returns the roles allowed to mutate player state.
func WriteRoles() []string {
	return []string{RoleGameMaster, RoleSuperAdmin}
}

// IngestRoles returns the roles allowed to submit chain events.
func IngestRoles() []string {
	return []string{RoleIndexer, RoleSuperAdmin}
}
