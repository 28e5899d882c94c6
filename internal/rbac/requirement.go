package rbac

// Requirement is a declarative authorization predicate: a tagged variant
// over permission keys rather than a callback, so requirements can be
// logged, compared, and serialized.
type Requirement struct {
	Kind RequirementKind `json:"kind"`
	Keys []string        `json:"keys"`
}

type RequirementKind string

const (
	// KindAny is satisfied when the intersection with the granted set is
	// non-empty.
	KindAny RequirementKind = "any"
	// KindAll is satisfied only when every key is granted.
	KindAll RequirementKind = "all"
)

// Key requires a single permission.
func Key(key string) Requirement {
	return Requirement{Kind: KindAll, Keys: []string{key}}
}

// AnyOf requires at least one of the keys.
func AnyOf(keys ...string) Requirement {
	return Requirement{Kind: KindAny, Keys: keys}
}

// AllOf requires every key.
func AllOf(keys ...string) Requirement {
	return Requirement{Kind: KindAll, Keys: keys}
}

// Satisfied interprets the requirement against a granted key set.
func (r Requirement) Satisfied(granted []string) bool {
	set := make(map[string]struct{}, len(granted))
	for _, k := range granted {
		set[k] = struct{}{}
	}

	switch r.Kind {
	case KindAny:
		for _, k := range r.Keys {
			if _, ok := set[k]; ok {
				return true
			}
		}
		return false
	case KindAll:
		for _, k := range r.Keys {
			if _, ok := set[k]; !ok {
				return false
			}
		}
		return len(r.Keys) > 0
	default:
		return false
	}
}

// Zero reports whether the requirement is empty (no gate).
func (r Requirement) Zero() bool {
	return r.Kind == "" && len(r.Keys) == 0
}

// Permission catalog. Route gates reference these keys; the seed script
// creates the matching rows.
const (
	PermReadUsers         = "read:users"
	PermWriteUsers        = "write:users"
	PermReadOrganizations = "read:organizations"
	PermWriteOrganizations = "write:organizations"
	PermReadRoles         = "read:roles"
	PermWriteRoles        = "write:roles"
	PermReadPermissions   = "read:permissions"
	PermWritePermissions  = "write:permissions"
	PermReadFeatureFlags  = "read:feature-flags"
	PermWriteFeatureFlags = "write:feature-flags"
)
