package registry

// Filter decides whether a canonical type path takes part in export and
// injection. A nil Filter allows everything.
type Filter func(path string) bool

// Allows reports whether f lets path through.
func (f Filter) Allows(path string) bool {
	return f == nil || f(path)
}

// AllowList lets only the listed paths through.
func AllowList(paths ...string) Filter {
	set := toSet(paths)
	return func(path string) bool {
		_, ok := set[path]
		return ok
	}
}

// DenyList lets everything through except the listed paths.
func DenyList(paths ...string) Filter {
	set := toSet(paths)
	return func(path string) bool {
		_, ok := set[path]
		return !ok
	}
}

// Or lets path through if any filter does.
func (f Filter) Or(other Filter) Filter {
	return func(path string) bool {
		return f.Allows(path) || other.Allows(path)
	}
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}
