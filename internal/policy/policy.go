// Package policy decides which actor may perform which action. It is pure:
// callers load the resource and pass the facts the rules need.
package policy

import "github.com/yukikurage/projectly-api/internal/models"

// Actor is the authenticated caller.
type Actor struct {
	ID   uint64
	Role models.Role
}

// Action names an operation subject to authorization.
type Action string

const (
	ListProjects  Action = "project/list"
	CreateProject Action = "project/create"
	UpdateProject Action = "project/update"
	DeleteProject Action = "project/delete"

	ListTasks        Action = "task/list"
	GetTask          Action = "task/get"
	CreateTask       Action = "task/create"
	UpdateTask       Action = "task/update"
	UpdateTaskStatus Action = "task/status"
	VerifyTask       Action = "task/verify"
	DeleteTask       Action = "task/delete"
	SuggestTasks     Action = "task/suggest"

	ListUsers      Action = "user/list"
	GetUser        Action = "user/get"
	CreateUser     Action = "user/create"
	UpdateUser     Action = "user/update"
	UpdateUserRole Action = "user/role"
	DeleteUser     Action = "user/delete"

	ViewDashboard Action = "dashboard/view"
	ViewAnalytics Action = "analytics/view"
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Deny means the action is not permitted.
	Deny Decision = iota

	// Allow means the action is permitted.
	Allow
)

// String returns "allow" or "deny".
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// DenyReason describes why an authorization check was denied.
type DenyReason int

const (
	// ReasonUnknownAction means no rule exists for the action.
	ReasonUnknownAction DenyReason = iota

	// ReasonRole means the actor's role may not perform the action.
	ReasonRole

	// ReasonNotAssignee means the action is limited to the resource's
	// assignee and the actor is someone else.
	ReasonNotAssignee
)

// String returns a human-readable reason.
func (r DenyReason) String() string {
	switch r {
	case ReasonUnknownAction:
		return "unknown action"
	case ReasonRole:
		return "role not permitted"
	case ReasonNotAssignee:
		return "not the assignee"
	default:
		return "unknown"
	}
}

// Result describes the outcome of an authorization check.
type Result struct {
	// Decision is Allow or Deny.
	Decision Decision

	// Reason is only meaningful when Decision is Deny.
	Reason DenyReason
}

// Allowed reports whether the decision is Allow.
func (r Result) Allowed() bool {
	return r.Decision == Allow
}

// Resource carries the facts about the target that rules depend on.
type Resource struct {
	// AssigneeID is the task's assignee, zero when not applicable.
	AssigneeID uint64
}

type rule struct {
	// roles may perform the action on any resource.
	roles []models.Role

	// assignee lets the resource's assignee act regardless of role.
	assignee bool

	// unscoped lists the roles that see every record of a listing.
	// Other permitted roles only see their own records.
	unscoped []models.Role
}

var (
	everyone   = []models.Role{models.RoleUser, models.RoleModerator, models.RoleAdmin}
	moderators = []models.Role{models.RoleModerator, models.RoleAdmin}
	admins     = []models.Role{models.RoleAdmin}
)

var rules = map[Action]rule{
	ListProjects:  {roles: everyone, unscoped: moderators},
	CreateProject: {roles: moderators},
	UpdateProject: {roles: moderators},
	DeleteProject: {roles: admins},

	ListTasks:        {roles: everyone, unscoped: moderators},
	GetTask:          {roles: moderators, assignee: true},
	CreateTask:       {roles: moderators},
	UpdateTask:       {roles: moderators},
	UpdateTaskStatus: {roles: moderators, assignee: true},
	VerifyTask:       {roles: moderators},
	DeleteTask:       {roles: moderators},
	SuggestTasks:     {roles: moderators},

	ListUsers:      {roles: moderators},
	GetUser:        {roles: admins},
	CreateUser:     {roles: admins},
	UpdateUser:     {roles: admins},
	UpdateUserRole: {roles: admins},
	DeleteUser:     {roles: admins},

	ViewDashboard: {roles: everyone},
	ViewAnalytics: {roles: moderators},
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Authorize evaluates action for actor against res.
func Authorize(actor Actor, action Action, res Resource) Result {
	rl, ok := rules[action]
	if !ok {
		return Result{Decision: Deny, Reason: ReasonUnknownAction}
	}
	if hasRole(rl.roles, actor.Role) {
		return Result{Decision: Allow}
	}
	if rl.assignee {
		if res.AssigneeID != 0 && res.AssigneeID == actor.ID {
			return Result{Decision: Allow}
		}
		return Result{Decision: Deny, Reason: ReasonNotAssignee}
	}
	return Result{Decision: Deny, Reason: ReasonRole}
}

// Scoped reports whether a listing for actor must be narrowed to the
// actor's own records: project memberships or task assignments.
func Scoped(actor Actor, action Action) bool {
	rl, ok := rules[action]
	if !ok || rl.unscoped == nil {
		return false
	}
	return !hasRole(rl.unscoped, actor.Role)
}

// CanModerate reports whether u may be set as a project moderator.
func CanModerate(u models.User) bool {
	return u.Role.CanModerate()
}
