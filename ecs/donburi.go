package ecs

import (
	"github.com/phanxgames/aspen"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// WindowEvent is an aspen input event with the driver's delta time at the
// moment it was dispatched.
type WindowEvent struct {
	aspen.Event
	DeltaTime float64
}

// WindowEventType is the Donburi event type for window input events.
var WindowEventType = events.NewEventType[WindowEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// queued on WindowEventType and delivered by ProcessEvents.
func NewDonburiSink(world donburi.World) aspen.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) HandleEvent(ev aspen.Event, dt float64) {
	WindowEventType.Publish(s.world, WindowEvent{Event: ev, DeltaTime: dt})
}
