package access

import "strings"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleHR       Role = "HR"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

var Roles = []Role{RoleAdmin, RoleHR, RoleManager, RoleEmployee}

const (
	LoginPath         = "/login"
	ResetPasswordPath = "/reset-password"
)

var homePaths = map[Role]string{
	RoleAdmin:    "/admin-dashboard",
	RoleHR:       "/hr-dashboard",
	RoleManager:  "/manager-dashboard",
	RoleEmployee: "/employee-dashboard",
}

// ParseRole normalizes a backend role string.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := homePaths[role]; !ok {
		return "", false
	}
	return role, true
}

// HomePath is where a freshly signed-in user lands.
func HomePath(role Role, firstLogin bool) string {
	if firstLogin {
		return ResetPasswordPath
	}
	if path, ok := homePaths[role]; ok {
		return path
	}
	return LoginPath
}
