package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"category:view",
		"category:select",
		"task:start",
		"task:answer",
	},
	"editor": {
		"category:view",
		"category:select",
		"category:create",
		"task:start",
		"task:answer",
		"exercise:import",
	},
	"admin": {
		"*", // everything
	},
}
