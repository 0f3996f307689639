package scene

// Host is implemented by the renderer. The scene calls it when selection or hover changes.
type Host interface {
	// OnSelect reports the new selection; an empty name means nothing is selected.
	OnSelect(name string)
	// OnHoverEnter asks for a pointer cursor over the named marker.
	OnHoverEnter(name string)
	// OnHoverExit asks for the default cursor.
	OnHoverExit()
}

// NopHost ignores every notification.
type NopHost struct{}

func (NopHost) OnSelect(string)     {}
func (NopHost) OnHoverEnter(string) {}
func (NopHost) OnHoverExit()        {}
