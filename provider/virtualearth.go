package provider

// VirtualEarthBinding is the virtual-earth-style provider variant. It uses
// the provider's native 256px tile extent and quadkey-flavored marker
// handles ("ve-" prefix).
type VirtualEarthBinding struct {
	*simBinding
}

func NewVirtualEarth() *VirtualEarthBinding {
	return &VirtualEarthBinding{
		simBinding: newSimBinding(KindVirtualEarth, 256, "ve"),
	}
}

var _ Binding = (*VirtualEarthBinding)(nil)
