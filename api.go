package decorz

// Name is a type alias for decor names. Names appear in events, spans and
// recovered panic errors.
//
// Example:
//
//	const ConfigOverrideName decorz.Name = "config-override"
//	decor, err := decorz.NewDecor(ConfigOverrideName, behaviour)
type Name = string
