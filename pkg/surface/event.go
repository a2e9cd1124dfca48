package surface

// Touch is a single native touch point.
type Touch struct {
	Identifier int64
	ClientX    float64
	ClientY    float64
	PageX      float64
	PageY      float64
	ScreenX    float64
	ScreenY    float64
	Force      float64
	RadiusX    float64
	RadiusY    float64
	Rotation   float64
}

// File describes one file carried by a native event.
type File struct {
	Name string
	Size int64
	Type string
}

// Event is a native event as delivered by a surface. Surfaces fill the
// fields that apply to the event; the rest stay zero.
type Event struct {
	Name    string
	Target  Node
	Bubbles bool

	// Mouse and pointer.
	ClientX, ClientY float64
	PageX, PageY     float64
	ScreenX, ScreenY float64
	OffsetX, OffsetY float64
	Button           int16
	Buttons          uint16

	PointerID          int64
	Width, Height      float64
	Pressure           float64
	TangentialPressure float64
	TiltX, TiltY       int32
	Twist              int32
	PointerType        string
	IsPrimary          bool

	// Modifier keys.
	CtrlKey, ShiftKey, AltKey, MetaKey bool

	// Keyboard.
	Key         string
	Code        string
	KeyCode     uint32
	Location    uint8
	Repeat      bool
	IsComposing bool

	// Wheel.
	DeltaX, DeltaY, DeltaZ float64
	DeltaMode              uint8

	// Touch.
	ChangedTouches []Touch
	TargetTouches  []Touch
	Touches        []Touch

	// Composition and input.
	Data string

	// Animation and transition.
	AnimationName string
	PropertyName  string
	ElapsedTime   float64
	PseudoElement string

	// Drag and file inputs.
	Files []File

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault cancels the surface's default action.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops the event from reaching further ancestors.
func (e *Event) StopPropagation() { e.propagationStopped = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.propagationStopped }
