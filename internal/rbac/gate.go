package rbac

import (
	"edgetrust/internal/apperr"
	"edgetrust/internal/identity"
)

type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionAdminister Action = "administer"
)

// Decision is the outcome of one authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize decides action for the caller id against a resource owned by owner.
// owner is the display name recorded on the resource and is ignored for create
// and administer.
//
// Ownership compares display names, so two users sharing a name share ownership.
// Moderators are treated as plain users.
func Authorize(id identity.Context, action Action, owner string) Decision {
	switch action {
	case ActionCreate:
		if id.SubjectID == "" {
			return deny("Authentication required.")
		}
		return allow()
	case ActionUpdate:
		if owns(id, owner) {
			return allow()
		}
		return deny("You are not authorized to update this resource.")
	case ActionDelete:
		if IsAdmin(id.Role) || owns(id, owner) {
			return allow()
		}
		return deny("You are not authorized to delete this resource.")
	case ActionAdminister:
		if IsAdmin(id.Role) {
			return allow()
		}
		return deny("Forbidden: Access is denied. Admin role required.")
	default:
		return deny("unknown action")
	}
}

// owns never matches an anonymous caller, even one whose default name equals owner.
func owns(id identity.Context, owner string) bool {
	return !id.IsAnonymous() && owner != "" && id.DisplayName == owner
}

// Require is Authorize as an error: nil when allowed, a 403 otherwise.
func Require(id identity.Context, action Action, owner string) error {
	d := Authorize(id, action, owner)
	if d.Allowed {
		return nil
	}
	return apperr.Forbidden(d.Reason)
}
