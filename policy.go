package users

// Caller identifies the authenticated principal an operation runs as.
type Caller struct {
	ID    int64
	Admin bool
}

// Operation enumerates the lifecycle operations the policy rules on.
type Operation string

const (
	OpCreate   Operation = "create"
	OpReadOne  Operation = "read-one"
	OpReadMany Operation = "read-many"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
)

// Authorize is the pure access-control decision: may caller perform op
// against the user record identified by target? target is ignored for
// OpCreate and OpReadMany.
//
// Admins may do anything. Non-admins may read and update their own record
// only and may never delete. OpReadMany is always allowed here; the
// lifecycle manager narrows the result to the caller's own record for
// non-admins instead of rejecting the request.
func Authorize(caller Caller, op Operation, target int64) error {
	if caller.Admin {
		return nil
	}

	switch op {
	case OpCreate, OpReadMany:
		return nil
	case OpReadOne, OpUpdate:
		if caller.ID == target {
			return nil
		}
		return ErrUnauthorized
	case OpDelete:
		return ErrUnauthorized
	default:
		return ErrUnauthorized
	}
}

// CanList reports whether the caller sees the unfiltered collection. A
// non-admin caller transparently receives only their own record.
func CanList(caller Caller) bool {
	return caller.Admin
}
