package rbac

// Default policy. Students upload and score their own history; advisors see
// everything for counseling; admin can do anything.
var RolePermissions = map[string][]string{
	"student": {
		"dataset:upload",
		"dataset:view-own",
		"report:compute",
		"report:view-own",
		"user:change_password",
	},
	"advisor": {
		"dataset:upload",
		"dataset:view-all",
		"report:compute",
		"report:view-all",
		"users:list",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
