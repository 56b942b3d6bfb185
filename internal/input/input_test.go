package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestHandleTracksHeldKeys(t *testing.T) {
	in := New()

	in.handle(Event{Type: EventKeyDown, Key: sdl.SCANCODE_W})
	if !in.IsKeyHeld(sdl.SCANCODE_W) || !in.IsKeyPressed(sdl.SCANCODE_W) {
		t.Error("W should be held and pressed")
	}

	in.events = in.events[:0]
	if !in.IsKeyHeld(sdl.SCANCODE_W) {
		t.Error("held state should survive a new frame")
	}
	if in.IsKeyPressed(sdl.SCANCODE_W) {
		t.Error("pressed is per frame")
	}

	in.handle(Event{Type: EventKeyUp, Key: sdl.SCANCODE_W})
	if in.IsKeyHeld(sdl.SCANCODE_W) {
		t.Error("W should be released")
	}
}

func TestHandleButtonsAndQuit(t *testing.T) {
	in := New()
	in.handle(Event{Type: EventMouseDown, Button: sdl.BUTTON_LEFT})
	if !in.IsButtonHeld(sdl.BUTTON_LEFT) {
		t.Error("left button should be held")
	}
	in.handle(Event{Type: EventMouseUp, Button: sdl.BUTTON_LEFT})
	if in.IsButtonHeld(sdl.BUTTON_LEFT) {
		t.Error("left button should be released")
	}

	if in.handle(Event{}) {
		t.Error("empty event should not quit")
	}
	if !in.handle(Event{Type: EventQuit}) {
		t.Error("quit event should request exit")
	}
	if n := len(in.Events()); n != 3 {
		t.Errorf("expected 3 recorded events, got %d", n)
	}
}

func TestTranslateWheel(t *testing.T) {
	e := translate(&sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, X: 0, Y: 2})
	if e.Type != EventMouseWheel || e.DeltaY != 2 {
		t.Errorf("unexpected event %+v", e)
	}
	if translate(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_MOVED}).Type != EventNone {
		t.Error("unhandled window events should translate to EventNone")
	}
}
