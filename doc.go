// Package aspen is a small real-time 2D compositing engine.
//
// A [Window] owns the display and an intermediate render target. Drawables
// added to the window are composed into the intermediate target each
// frame; every [Camera] then captures its viewport of that target into its
// own render target, and the window places each camera on the display.
// Rendering goes through a [Backend]: [EbitenBackend] for a real window
// (via [Ebitengine]) or [HeadlessBackend] for software rendering.
//
// # Quick start
//
//	backend := aspen.NewEbitenBackend(nil)
//	win, err := aspen.NewWindow(aspen.WindowConfig{
//		Title: "demo", Width: 600, Height: 600, Background: aspen.ColorWhite,
//	}, backend)
//	if err != nil {
//		log.Fatal(err)
//	}
//	cam, _ := aspen.NewCamera(backend, 600, 600, 0, 0)
//	win.AddCamera(cam)
//
//	sheet, _ := win.Loader().SpriteSheet("hero.png", 292, 292, 5, 1)
//	walk, _ := aspen.NewAnimation(sheet, 0, []int{0, 1, 2, 3, 4}, 0.2)
//	win.AddImage(walk)
//
//	win.SetMainFunc(func() {
//		walk.SetX(walk.X() + 30*win.DeltaTime())
//	})
//	if err := win.StartMainLoop(60); err != nil {
//		log.Fatal(err)
//	}
//
// # Drawables
//
// [Image], [Text], [SpriteSheet], [Animation] and [AnimatorController]
// implement [Drawable]. Every drawable has a layer; queues are kept sorted
// by ascending layer and equal layers keep their insertion order. Time
// driven drawables advance by the previous frame's duration whether or not
// they were visible.
//
// # Threads
//
// [Window.StartMainLoop] runs the render loop on the calling goroutine and
// the main func on another. The main func runs under the window's scene
// lock; code on other goroutines that mutates drawables should use
// [Window.Do]. Adding and removing drawables and cameras is safe from any
// goroutine.
//
// # Assets
//
// A [Loader] creates drawables through an [ImageDecoder], a
// [TextRasterizer] and a [TileMapParser]. Failures are logged with
// [log/slog] and returned as [*ResourceLoadError]. Window and animator
// definitions can be read from YAML with [LoadWindowConfig] and
// [LoadAnimatorConfig].
//
// The ecs subpackage forwards window events into a Donburi world.
//
// [Ebitengine]: https://ebitengine.org
package aspen
