// Package access holds the authorization rules for every shop operation.
// It is a pure function of the caller, the resource kind, the operation and
// the resource owner; identity resolution happens in the HTTP middleware.
package access

import "github.com/google/uuid"

type Resource string

const (
	Catalog Resource = "catalog"
	Orders  Resource = "orders"
	Reviews Resource = "reviews"
)

type Op string

const (
	Read   Op = "read"
	List   Op = "list"
	Create Op = "create"
	Update Op = "update"
	Delete Op = "delete"
)

type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
)

// Caller is nil for anonymous requests.
type Caller struct {
	UserID uuid.UUID
	Admin  bool
}

type Decision struct {
	Allowed bool
	Kind    Kind
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(k Kind, reason string) Decision {
	return Decision{Kind: k, Reason: reason}
}

// Decide returns whether caller may perform op on a resource owned by owner.
// owner is ignored for operations that have no single target.
func Decide(caller *Caller, res Resource, op Op, owner uuid.UUID) Decision {
	switch res {
	case Catalog:
		if op == Read || op == List {
			return allow()
		}
		if caller == nil {
			return deny(KindUnauthenticated, "authentication required")
		}
		if !caller.Admin {
			return deny(KindForbidden, "admin role required")
		}
		return allow()

	case Orders:
		if caller == nil {
			return deny(KindUnauthenticated, "authentication required")
		}
		switch op {
		case List, Create:
			return allow()
		}
		if caller.UserID != owner {
			return deny(KindForbidden, "order belongs to another user")
		}
		return allow()

	case Reviews:
		if op == Read || op == List {
			return allow()
		}
		if caller == nil {
			return deny(KindUnauthenticated, "authentication required")
		}
		switch op {
		case Create:
			return allow()
		case Delete:
			if caller.Admin || caller.UserID == owner {
				return allow()
			}
		case Update:
			if caller.UserID == owner {
				return allow()
			}
		}
		return deny(KindForbidden, "review belongs to another user")
	}

	return deny(KindForbidden, "unknown resource")
}
