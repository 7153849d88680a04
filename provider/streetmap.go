package provider

// StreetMapBinding is the satellite/street-map provider variant. It uses a
// 512px tile extent and "osm" marker handles.
type StreetMapBinding struct {
	*simBinding
}

func NewStreetMap() *StreetMapBinding {
	return &StreetMapBinding{
		simBinding: newSimBinding(KindStreetMap, 512, "osm"),
	}
}

var _ Binding = (*StreetMapBinding)(nil)

// ForKind constructs the binding for the given provider kind. The set of
// providers is closed; unknown kinds fall back to the street-map variant.
func ForKind(kind Kind) Binding {
	if kind == KindVirtualEarth {
		return NewVirtualEarth()
	}
	return NewStreetMap()
}

// KindFromString parses a provider name as it appears in config files.
func KindFromString(name string) Kind {
	if name == "virtualearth" {
		return KindVirtualEarth
	}
	return KindStreetMap
}
