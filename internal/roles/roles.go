package roles

import "strings"

// Role is the closed set of duty positions recognized by the platform.
// Stored in the personnel record as a lowercase string.
type Role string

const (
	RoleMember          Role = "member"
	RoleTeamLeader      Role = "team_leader"
	RolePlatoonSergeant Role = "platoon_sergeant"
	RoleFirstSergeant   Role = "first_sergeant"
	RoleCommander       Role = "commander"
)

// Permission is a single action category gated by role.
type Permission string

const (
	PermApproveLiberty  Permission = "approve_liberty"
	PermApproveSwap     Permission = "approve_swap"
	PermManageSchedule  Permission = "manage_schedule"
	PermManageWeather   Permission = "manage_weather"
	PermManagePersonnel Permission = "manage_personnel"
	PermManageSettings  Permission = "manage_settings"
	PermVerifyDetails   Permission = "verify_details"
)

// permissions maps each role to the full set of actions it may perform.
// This is the single source of truth; handlers never compare role strings directly.
var permissions = map[Role]map[Permission]bool{
	RoleMember:     {},
	RoleTeamLeader: {PermVerifyDetails: true},
	RolePlatoonSergeant: {
		PermApproveLiberty: true,
		PermApproveSwap:    true,
		PermManageSchedule: true,
		PermVerifyDetails:  true,
	},
	RoleFirstSergeant: {
		PermApproveLiberty:  true,
		PermApproveSwap:     true,
		PermManageSchedule:  true,
		PermManageWeather:   true,
		PermManagePersonnel: true,
		PermManageSettings:  true,
		PermVerifyDetails:   true,
	},
	RoleCommander: {
		PermApproveLiberty:  true,
		PermApproveSwap:     true,
		PermManageSchedule:  true,
		PermManageWeather:   true,
		PermManagePersonnel: true,
		PermManageSettings:  true,
		PermVerifyDetails:   true,
	},
}

// Parse normalizes a stored role string. Unknown values degrade to member so a
// bad row can never grant privileges.
func Parse(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := permissions[r]; ok {
		return r
	}
	return RoleMember
}

// Has reports whether the role carries the given permission.
func Has(r Role, p Permission) bool {
	return permissions[r][p]
}

// ApproverRoles returns the roles eligible to approve liberty requests, used by
// the notification dispatcher to pick recipients.
func ApproverRoles() []Role {
	out := []Role{}
	for _, r := range []Role{RolePlatoonSergeant, RoleFirstSergeant, RoleCommander} {
		if Has(r, PermApproveLiberty) {
			out = append(out, r)
		}
	}
	return out
}

// Valid reports whether s names a known role exactly.
func Valid(s string) bool {
	_, ok := permissions[Role(s)]
	return ok
}
