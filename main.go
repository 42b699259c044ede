package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/img"
	"github.com/veandco/go-sdl2/sdl"

	"vj-frame/pkg/config"
	"vj-frame/pkg/logging"
	"vj-frame/pkg/media"
	"vj-frame/pkg/metrics"
	"vj-frame/pkg/performance"
	"vj-frame/pkg/playback"
	"vj-frame/pkg/settings"
	"vj-frame/pkg/supervisor"
	"vj-frame/screens/cycler"
	"vj-frame/screens/root"
)

func main() {
	// SDL must stay on the main OS thread.
	runtime.LockOSThread()

	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("Failed to read .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	log := logging.Component("main")

	if cfg.Window.LowMemory {
		setupLowMemory()
	}
	performance.LogMemorySnapshot()

	if err := initializeSDL2(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize SDL2")
	}
	defer func() {
		log.Info().Msg("Shutting down SDL2")
		img.Quit()
		sdl.Quit()
	}()
	if err := img.Init(img.INIT_JPG | img.INIT_PNG | img.INIT_WEBP); err != nil {
		log.Warn().Err(err).Msg("SDL_image could not load every codec")
	}

	screenWidth, screenHeight := getDisplayDimensions(cfg.Window.Width, cfg.Window.Height)
	log.Info().Str("title", cfg.Window.Title).Int32("width", screenWidth).Int32("height", screenHeight).Msg("Starting")
	logDisplayInfo()

	window, err := createWindow(cfg.Window.Title, screenWidth, screenHeight)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create window")
	}
	defer window.Destroy()

	renderer, err := createRenderer(window)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create renderer")
	}
	defer renderer.Destroy()

	store, err := settings.Open(cfg.SettingsPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.SettingsPath).Msg("Settings file unreadable, using defaults")
	}

	lib := media.NewLibrary()
	watcher := media.NewWatcher(cfg.Media.Dir, lib, cfg.Media.Watch)
	watcher.RescanInterval = cfg.Media.RescanInterval
	if err := watcher.Rescan(); err != nil {
		log.Warn().Err(err).Str("dir", cfg.Media.Dir).Msg("Initial media scan failed")
	}
	log.Info().Int("entries", lib.Len()).Str("dir", cfg.Media.Dir).Msg("Media library loaded")

	var cycling atomic.Bool
	tree := buildTree(cfg, lib, watcher, &cycling)
	ctx, cancel := context.WithCancel(context.Background())
	treeDone := tree.ServeBackground(ctx)

	screen := root.NewRootScreen(window, renderer, store, lib, root.Options{
		FontPath: cfg.Window.Font,
		Cycler: cycler.Options{
			Playback: playback.Options{
				HistorySize:        cfg.Playback.HistorySize,
				MinTransitionDelay: cfg.Playback.MinTransitionDelay,
				DurationMaxLimit:   cfg.Playback.DurationMaxLimit,
			},
		},
	})

	runGameLoop(screen, cfg.Window.TargetFPS, cfg.Window.LowMemory, &cycling)

	screen.Close()
	cancel()
	for err := range treeDone {
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("Supervisor shutdown error")
		}
	}
	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		log.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	log.Info().Msg("VJ Frame shutting down")
}

// buildTree registers the background services that are enabled.
func buildTree(cfg *config.Config, lib *media.Library, watcher *media.Watcher, cycling *atomic.Bool) *supervisor.Tree {
	log := logging.Component("main")
	tree := supervisor.NewTree(nil, supervisor.DefaultTreeConfig())
	tree.AddMediaService(watcher)

	if cfg.S3.Enabled {
		client, err := media.NewS3Client(cfg.S3.Region)
		if err != nil {
			log.Error().Err(err).Msg("S3 mirror disabled")
		} else {
			mirror := media.NewS3Sync(media.S3Config{
				Bucket:   cfg.S3.Bucket,
				Prefix:   cfg.S3.Prefix,
				Region:   cfg.S3.Region,
				Interval: cfg.S3.SyncInterval,
			}, cfg.Media.Dir, client)
			mirror.OnSynced = func() {
				if err := watcher.Rescan(); err != nil {
					log.Warn().Err(err).Msg("Rescan after S3 sync failed")
				}
			}
			tree.AddMediaService(mirror)
		}
	}

	if cfg.Metrics.Enabled {
		tree.AddAPIService(&metrics.Server{
			Addr: cfg.Metrics.Addr,
			Healthy: func() bool {
				return cycling.Load() || lib.Len() == 0
			},
		})
	}
	return tree
}

// setupLowMemory applies the tight GC settings the Pi needs to keep a
// decoder and the renderer inside a small memory budget.
func setupLowMemory() {
	debug.SetGCPercent(25)
	debug.SetMemoryLimit(256 << 20)
	runtime.GC()
	logging.Info().Int("gc_percent", 25).Str("memory_limit", "256MiB").Msg("Low memory mode")
}

// initializeSDL2 initializes SDL2 with fallback video drivers
func initializeSDL2() error {
	log := logging.Component("sdl")

	var videoDrivers []string
	if envDriver := os.Getenv("SDL_VIDEODRIVER"); envDriver != "" {
		log.Info().Str("driver", envDriver).Msg("Using SDL_VIDEODRIVER from environment")
		videoDrivers = []string{envDriver, "fbcon", "software", "dummy"}
	} else if runtime.GOOS == "darwin" {
		videoDrivers = []string{"cocoa", "software", "dummy"}
	} else {
		// Linux/Raspberry Pi, best first.
		videoDrivers = []string{"kmsdrm", "drm", "fbcon", "wayland", "x11", "software", "dummy"}
	}

	ev := log.Info().Str("os", runtime.GOOS).Str("display", os.Getenv("DISPLAY"))
	if model, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		ev = ev.Str("device", string(model))
	}
	_, fbErr := os.Stat("/dev/fb0")
	_, driErr := os.Stat("/dev/dri")
	ev.Bool("framebuffer", fbErr == nil).Bool("dri", driErr == nil).Msg("System information")

	for _, driver := range videoDrivers {
		os.Setenv("SDL_VIDEODRIVER", driver)
		if err := trySDLInitialization(driver); err != nil {
			log.Warn().Err(err).Str("driver", driver).Msg("SDL2 initialization failed")
			continue
		}
		log.Info().Str("driver", driver).Msg("SDL2 initialized")
		return nil
	}

	return errors.New("all SDL2 video drivers failed")
}

// trySDLInitialization sets the hints for driver and initializes video
func trySDLInitialization(driver string) error {
	sdl.Quit()

	sdl.SetHint(sdl.HINT_VIDEODRIVER, driver)
	switch driver {
	case "cocoa":
		sdl.SetHint("SDL_VIDEO_COCOA_ALLOW_SCREENSAVER", "1")
	case "kmsdrm":
		sdl.SetHint("SDL_KMSDRM_REQUIRE_DRM_MASTER", "1")
		sdl.SetHint("SDL_VIDEO_KMSDRM_DEVINDEX", "0")
		// Async flips cause VC4 errors.
		sdl.SetHint("SDL_RENDER_VSYNC", "1")
		sdl.SetHint("SDL_VIDEO_ALLOW_SCREENSAVER", "0")
	case "fbcon":
		sdl.SetHint("SDL_FBDEV", "/dev/fb0")
	case "wayland":
		sdl.SetHint("SDL_VIDEO_WAYLAND_WMCLASS", "vj-frame")
	case "x11":
		sdl.SetHint("SDL_VIDEO_X11_NET_WM_BYPASS_COMPOSITOR", "0")
	case "software":
		sdl.SetHint("SDL_FRAMEBUFFER_ACCELERATION", "0")
	}

	sdl.SetHint(sdl.HINT_RENDER_BATCHING, "1")
	switch driver {
	case "kmsdrm", "drm":
		sdl.SetHint(sdl.HINT_RENDER_DRIVER, "opengles2")
	case "cocoa":
		sdl.SetHint(sdl.HINT_RENDER_DRIVER, "opengl")
	default:
		sdl.SetHint(sdl.HINT_RENDER_DRIVER, "software")
	}
	sdl.SetHint(sdl.HINT_VIDEO_MINIMIZE_ON_FOCUS_LOSS, "0")

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("SDL_INIT_VIDEO: %w", err)
	}
	if _, err := sdl.GetCurrentVideoDriver(); err != nil {
		return fmt.Errorf("get video driver: %w", err)
	}
	return nil
}

// getDisplayDimensions returns the screen dimensions or the fallback values
func getDisplayDimensions(fallbackWidth, fallbackHeight int32) (int32, int32) {
	displayMode, err := sdl.GetCurrentDisplayMode(0)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to get display mode, using fallback size")
		return fallbackWidth, fallbackHeight
	}
	return displayMode.W, displayMode.H
}

// logDisplayInfo logs every display SDL can see
func logDisplayInfo() {
	log := logging.Component("sdl")

	numDisplays, err := sdl.GetNumVideoDisplays()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get number of displays")
		return
	}
	for i := 0; i < numDisplays; i++ {
		ev := log.Debug().Int("display", i)
		if name, err := sdl.GetDisplayName(i); err == nil {
			ev = ev.Str("name", name)
		}
		if mode, err := sdl.GetCurrentDisplayMode(i); err == nil {
			ev = ev.Int32("width", mode.W).Int32("height", mode.H).Int32("refresh_hz", mode.RefreshRate)
		}
		ev.Msg("Display")
	}
}

// createWindow creates a fullscreen SDL2 window
func createWindow(title string, width, height int32) (*sdl.Window, error) {
	return sdl.CreateWindow(title, 0, 0, width, height, sdl.WINDOW_SHOWN|sdl.WINDOW_FULLSCREEN)
}

// createRenderer creates an SDL2 renderer, accelerated on GPU drivers
func createRenderer(window *sdl.Window) (*sdl.Renderer, error) {
	log := logging.Component("sdl")

	currentDriver, err := sdl.GetCurrentVideoDriver()
	if err != nil {
		currentDriver = "unknown"
	}

	var renderer *sdl.Renderer
	if currentDriver == "kmsdrm" || currentDriver == "drm" || currentDriver == "cocoa" {
		var flags uint32 = sdl.RENDERER_ACCELERATED
		// VSync on kmsdrm triggers VC4 async flip errors.
		if currentDriver != "kmsdrm" {
			flags |= sdl.RENDERER_PRESENTVSYNC
		}
		renderer, err = sdl.CreateRenderer(window, -1, flags)
		if err != nil {
			log.Warn().Err(err).Str("driver", currentDriver).Msg("Hardware acceleration failed, trying software")
		}
	}

	if renderer == nil {
		log.Info().Str("driver", currentDriver).Msg("Using software renderer")
		renderer, err = sdl.CreateRenderer(window, -1, sdl.RENDERER_SOFTWARE)
		if err != nil {
			return nil, err
		}
	}

	// Overlays are translucent.
	renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND)
	return renderer, nil
}

// runGameLoop executes the main SDL2 frame loop
func runGameLoop(screen *root.RootScreen, targetFPS int, lowMemory bool, cycling *atomic.Bool) {
	log := logging.Component("main")
	frameTime := time.Second / time.Duration(targetFPS)
	monitor := performance.NewFrameMonitor(targetFPS, 2*targetFPS)
	reportEvery := 30 * targetFPS

	for frame := 1; ; frame++ {
		start := time.Now()
		monitor.Tick(start)

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			if _, ok := event.(*sdl.QuitEvent); ok {
				return
			}
		}

		if err := screen.Update(); err != nil {
			log.Error().Err(err).Msg("Update failed")
			return
		}
		if err := screen.Draw(); err != nil {
			log.Error().Err(err).Msg("Draw failed")
			return
		}
		cycling.Store(screen.Cycling())

		if lowMemory && frame%60 == 0 {
			runtime.GC()
		}
		if frame%reportEvery == 0 {
			r := monitor.Report()
			log.Debug().
				Float64("avg_frame_ms", r.AvgFrameMs).
				Int("slow_frames", r.SlowFrames).
				Bool("healthy", r.IsHealthy).
				Msg("Frame timing")
		}

		if elapsed := time.Since(start); elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
}
