package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleDeveloper  UserRole = "DEVELOPER"
	RoleInspector  UserRole = "INSPECTOR"
	RoleContractor UserRole = "CONTRACTOR"
	RoleBuyer      UserRole = "BUYER"
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
