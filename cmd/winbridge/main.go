package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/winbridge/internal/compositor"
	"github.com/1broseidon/winbridge/internal/config"
	"github.com/1broseidon/winbridge/internal/daemon"
	"github.com/1broseidon/winbridge/internal/display"
	"github.com/1broseidon/winbridge/internal/indev"
	"github.com/1broseidon/winbridge/internal/ipc"
	"github.com/1broseidon/winbridge/internal/platform"
	"github.com/1broseidon/winbridge/internal/render"
	"github.com/1broseidon/winbridge/internal/scene"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "surfaces":
		os.Exit(runSurfaces(os.Args[2:]))
	case "surface":
		os.Exit(runSurface(os.Args[2:]))
	case "window":
		os.Exit(runWindow(os.Args[2:]))
	case "pointer":
		os.Exit(runPointer(os.Args[2:]))
	case "snapshot":
		os.Exit(runSnapshot(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winbridge <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Open the window and run the frame loop (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  windows             List windows")
	fmt.Fprintln(w, "  surfaces            List surfaces")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  surface move        Move a surface")
	fmt.Fprintln(w, "  surface opacity     Set surface opacity")
	fmt.Fprintln(w, "  surface label       Rename a surface")
	fmt.Fprintln(w, "  surface remove      Remove a surface")
	fmt.Fprintln(w, "  window close        Close a window")
	fmt.Fprintln(w, "  pointer             Inject pointer input into a window")
	fmt.Fprintln(w, "  snapshot            Write the last frame as PNG")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the interactive surface inspector")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winbridge <command> --help' for command-specific options.")
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/winbridge/config.yaml)")
	headless := fs.Bool("headless", false, "Run without an X11 connection")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	socket := fs.String("socket", "", "Control socket path (default: $XDG_RUNTIME_DIR/winbridge.sock)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winbridge run [--config PATH] [--headless] [--verbose] [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config
	logger := newLogger(cfg, *verbose)
	logger.Info("configuration loaded", "files", len(res.Files), "surfaces", len(cfg.Surfaces), "tick_interval", cfg.TickInterval)

	clearColor, err := config.ParseColor(cfg.ClearColor)
	if err != nil {
		logger.Error("invalid clear color", "error", err)
		return 1
	}

	inputs := indev.NewManager(cfg.Limits.MaxInputDevices, logger.With("component", "indev"))
	textures := display.NewRegistry(inputs, logger.With("component", "display"))
	renderer := render.New(textures, render.Options{ClearColor: clearColor, Logger: logger.With("component", "render")})
	defer renderer.Close()

	var host platform.Host
	if *headless {
		host = platform.NewHeadless()
		logger.Info("running headless")
	} else {
		x, closeHost, err := openX11Host(cfg, logger.With("component", "x11"))
		if err != nil {
			logger.Error("failed to connect to display", "error", err)
			return 1
		}
		defer closeHost()
		host = x
	}

	sys := compositor.New(host, renderer, inputs, compositor.Options{
		Title:       cfg.Window.Title,
		Present:     cfg.Present,
		MaxSurfaces: cfg.Limits.MaxSurfaces,
		Logger:      logger.With("component", "compositor"),
	})
	defer sys.Shutdown()

	win, err := sys.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Pointer)
	if err != nil {
		logger.Error("failed to create window", "error", err)
		return 1
	}

	sc, err := scene.Build(sys, textures, win, cfg.Surfaces, logger.With("component", "scene"))
	if err != nil {
		logger.Error("failed to build scene", "error", err)
		return 1
	}

	loop := daemon.NewLoop(daemon.LoopConfig{
		Interval:      cfg.TickInterval,
		ExitWhenEmpty: true,
		Poller:        inputs,
		Logger:        logger.With("component", "loop"),
	}, sys)

	srv, err := ipc.NewServer(loop, ipc.ServerOptions{
		SocketPath: *socket,
		Frame:      renderer.Frame,
		Logger:     logger.With("component", "ipc"),
	})
	if err != nil {
		logger.Error("failed to create IPC server", "error", err)
		return 1
	}
	if err := srv.Start(); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		return 1
	}
	defer srv.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("winbridge started", "window", win, "width", cfg.Window.Width, "height", cfg.Window.Height)
	loop.Run(ctx)

	st := loop.Status()
	logger.Info("winbridge stopping", "frames", st.Frames, "reaped", st.Reaped)
	sc.Teardown()
	return 0
}
