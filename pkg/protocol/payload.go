package protocol

// Category groups event names that share a payload shape.
type Category uint8

// Event categories.
const (
	CategoryUnknown Category = iota
	CategoryMouse
	CategoryPointer
	CategoryKeyboard
	CategoryWheel
	CategoryTouch
	CategoryComposition
	CategoryDrag
	CategoryAnimation
	CategoryTransition
	CategoryFocus
	CategoryScroll
	CategoryForm
	CategoryClipboard
	CategorySelection
	CategoryMedia
	CategoryToggle
	CategoryLoad
	CategoryResize
)

var categoryNames = [...]string{
	CategoryUnknown:     "unknown",
	CategoryMouse:       "mouse",
	CategoryPointer:     "pointer",
	CategoryKeyboard:    "keyboard",
	CategoryWheel:       "wheel",
	CategoryTouch:       "touch",
	CategoryComposition: "composition",
	CategoryDrag:        "drag",
	CategoryAnimation:   "animation",
	CategoryTransition:  "transition",
	CategoryFocus:       "focus",
	CategoryScroll:      "scroll",
	CategoryForm:        "form",
	CategoryClipboard:   "clipboard",
	CategorySelection:   "selection",
	CategoryMedia:       "media",
	CategoryToggle:      "toggle",
	CategoryLoad:        "load",
	CategoryResize:      "resize",
}

// String returns the category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Modifiers represents keyboard/mouse modifier keys.
type Modifiers uint8

const (
	ModCtrl  Modifiers = 0x01
	ModShift Modifiers = 0x02
	ModAlt   Modifiers = 0x04
	ModMeta  Modifiers = 0x08
)

// Has returns true if the specified modifier is set.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod != 0
}

// EventData is a normalized, platform-neutral event payload.
type EventData interface {
	Category() Category
}

// MouseData contains mouse event data. Values is set when the event
// originated on a form-bearing node.
type MouseData struct {
	ClientX   float64             `json:"client_x"`
	ClientY   float64             `json:"client_y"`
	PageX     float64             `json:"page_x"`
	PageY     float64             `json:"page_y"`
	ScreenX   float64             `json:"screen_x"`
	ScreenY   float64             `json:"screen_y"`
	OffsetX   float64             `json:"offset_x"`
	OffsetY   float64             `json:"offset_y"`
	Button    int16               `json:"button"`
	Buttons   uint16              `json:"buttons"` // Bitmask of currently pressed buttons
	Modifiers Modifiers           `json:"modifiers"`
	Values    map[string][]string `json:"values,omitempty"`
}

func (MouseData) Category() Category { return CategoryMouse }

// PointerData extends MouseData with pointer-specific fields.
type PointerData struct {
	MouseData
	PointerID          int64   `json:"pointer_id"`
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	Pressure           float64 `json:"pressure"`
	TangentialPressure float64 `json:"tangential_pressure"`
	TiltX              int32   `json:"tilt_x"`
	TiltY              int32   `json:"tilt_y"`
	Twist              int32   `json:"twist"`
	PointerType        string  `json:"pointer_type"`
	IsPrimary          bool    `json:"is_primary"`
}

func (PointerData) Category() Category { return CategoryPointer }

// KeyboardData contains keyboard event data.
type KeyboardData struct {
	Key         string    `json:"key"`
	Code        string    `json:"code"` // Physical key code (e.g., "KeyA", "Enter")
	KeyCode     uint32    `json:"key_code"`
	Location    uint8     `json:"location"` // 0=standard, 1=left, 2=right, 3=numpad
	Modifiers   Modifiers `json:"modifiers"`
	Repeat      bool      `json:"repeat"`
	IsComposing bool      `json:"is_composing"`
}

func (KeyboardData) Category() Category { return CategoryKeyboard }

// WheelData contains wheel event data.
type WheelData struct {
	MouseData
	DeltaX    float64 `json:"delta_x"`
	DeltaY    float64 `json:"delta_y"`
	DeltaZ    float64 `json:"delta_z"`
	DeltaMode uint8   `json:"delta_mode"` // 0=pixels, 1=lines, 2=pages
}

func (WheelData) Category() Category { return CategoryWheel }

// TouchPoint is a single contact point.
type TouchPoint struct {
	Identifier int64   `json:"identifier"`
	ClientX    float64 `json:"client_x"`
	ClientY    float64 `json:"client_y"`
	PageX      float64 `json:"page_x"`
	PageY      float64 `json:"page_y"`
	ScreenX    float64 `json:"screen_x"`
	ScreenY    float64 `json:"screen_y"`
	Force      float64 `json:"force"`
	RadiusX    float64 `json:"radius_x"`
	RadiusY    float64 `json:"radius_y"`
	Rotation   float64 `json:"rotation_angle"`
}

// TouchData contains touch event data.
type TouchData struct {
	Changed   []TouchPoint `json:"changed_touches"`
	Targets   []TouchPoint `json:"target_touches"`
	Touches   []TouchPoint `json:"touches"`
	Modifiers Modifiers    `json:"modifiers"`
}

func (TouchData) Category() Category { return CategoryTouch }

// CompositionData contains composition (IME) event data.
type CompositionData struct {
	Data string `json:"data"`
}

func (CompositionData) Category() Category { return CategoryComposition }

// FileInfo describes one file attached to an event.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type,omitempty"`
}

// FilesData describes the files carried by a drag or file input.
type FilesData struct {
	Files []FileInfo `json:"files"`
}

// DragData contains drag event data.
type DragData struct {
	MouseData
	Files *FilesData `json:"files,omitempty"`
}

func (DragData) Category() Category { return CategoryDrag }

// AnimationData contains CSS animation event data.
type AnimationData struct {
	AnimationName string  `json:"animation_name"`
	ElapsedTime   float64 `json:"elapsed_time"`
	PseudoElement string  `json:"pseudo_element"`
}

func (AnimationData) Category() Category { return CategoryAnimation }

// TransitionData contains CSS transition event data.
type TransitionData struct {
	PropertyName  string  `json:"property_name"`
	ElapsedTime   float64 `json:"elapsed_time"`
	PseudoElement string  `json:"pseudo_element"`
}

func (TransitionData) Category() Category { return CategoryTransition }

// FocusData is the payload of focus events.
type FocusData struct{}

func (FocusData) Category() Category { return CategoryFocus }

// ScrollData contains scroll event data.
type ScrollData struct {
	ScrollTop    float64 `json:"scroll_top"`
	ScrollLeft   float64 `json:"scroll_left"`
	ScrollWidth  float64 `json:"scroll_width"`
	ScrollHeight float64 `json:"scroll_height"`
	ClientWidth  float64 `json:"client_width"`
	ClientHeight float64 `json:"client_height"`
}

func (ScrollData) Category() Category { return CategoryScroll }

// FormData contains form and control values. Value is the originating
// control's own coerced value; Values aggregates the named controls of the
// enclosing form.
type FormData struct {
	Value  string              `json:"value"`
	Values map[string][]string `json:"values"`
	Valid  bool                `json:"valid"`
	Files  *FilesData          `json:"files,omitempty"`
}

func (FormData) Category() Category { return CategoryForm }

// EmptyData is the payload of events that carry no fields.
type EmptyData struct {
	Kind Category `json:"-"`
}

func (d EmptyData) Category() Category { return d.Kind }
