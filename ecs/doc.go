// Package ecs bridges aspen window events into ECS worlds.
//
// The primary adapter is [NewDonburiSink], which publishes every event the
// window dispatches into a [Donburi] world as a typed event. Subscribe to
// [WindowEventType] in your systems and process events from the main func:
//
//	sink := ecs.NewDonburiSink(world)
//	window.SetEventSink(sink)
//	window.SetMainFunc(func() {
//		ecs.WindowEventType.ProcessEvents(world)
//	})
//
// The window publishes under its scene lock and the main func runs under
// the same lock, so the world's event queue is never touched concurrently.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
