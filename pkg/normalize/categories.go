package normalize

import (
	"github.com/vango-dev/vinterp/pkg/protocol"
)

var categories = map[string]protocol.Category{}

func register(c protocol.Category, names ...string) {
	for _, name := range names {
		categories[name] = c
	}
}

func init() {
	register(protocol.CategoryMouse,
		"click", "contextmenu", "dblclick", "doubleclick", "auxclick",
		"mousedown", "mouseenter", "mouseleave", "mousemove", "mouseout", "mouseover", "mouseup")
	register(protocol.CategoryPointer,
		"pointerdown", "pointermove", "pointerup", "pointercancel", "pointerenter",
		"pointerleave", "pointerover", "pointerout", "gotpointercapture", "lostpointercapture")
	register(protocol.CategoryKeyboard, "keydown", "keypress", "keyup")
	register(protocol.CategoryWheel, "wheel")
	register(protocol.CategoryTouch, "touchstart", "touchmove", "touchend", "touchcancel")
	register(protocol.CategoryComposition, "compositionstart", "compositionupdate", "compositionend")
	register(protocol.CategoryDrag,
		"drag", "dragend", "dragenter", "dragexit", "dragleave", "dragover", "dragstart", "drop")
	register(protocol.CategoryAnimation, "animationstart", "animationend", "animationiteration", "animationcancel")
	register(protocol.CategoryTransition, "transitionstart", "transitionrun", "transitionend", "transitioncancel")
	register(protocol.CategoryFocus, "focus", "blur", "focusin", "focusout")
	register(protocol.CategoryScroll, "scroll", "scrollend")
	register(protocol.CategoryForm, "change", "input", "invalid", "reset", "submit")
	register(protocol.CategoryClipboard, "copy", "cut", "paste")
	register(protocol.CategorySelection, "select", "selectstart", "selectionchange")
	register(protocol.CategoryMedia,
		"abort", "canplay", "canplaythrough", "durationchange", "emptied", "encrypted", "ended",
		"error", "loadeddata", "loadedmetadata", "loadstart", "pause", "play", "playing",
		"progress", "ratechange", "seeked", "seeking", "stalled", "suspend", "timeupdate",
		"volumechange", "waiting")
	register(protocol.CategoryToggle, "toggle", "beforetoggle")
	register(protocol.CategoryLoad, "load", "unload", "beforeunload")
	register(protocol.CategoryResize, "resize")
}

// CategoryOf returns the payload category for an event name.
func CategoryOf(name string) protocol.Category {
	return categories[name]
}
