package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"heightfield/internal/config"
	"heightfield/internal/graphics"
	"heightfield/internal/render"
	"heightfield/internal/terrain"
)

// pollTimeout bounds the wait for a snapshot between frames.
const pollTimeout = 2 * time.Millisecond

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "settings file (.toml, .yaml)")
	seed := flag.Int64("seed", 0, "noise seed (random when unset)")
	noiseName := flag.String("noise", "", "noise backend override")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	s := config.Default()
	if *configPath != "" {
		var err error
		if s, err = config.Load(*configPath); err != nil {
			logger.Error("load settings", "err", err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			s.Seed = seed
		}
	})
	if *noiseName != "" {
		s.Noise = *noiseName
	}
	if err := s.Validate(); err != nil {
		logger.Error("invalid settings", "err", err)
		os.Exit(1)
	}

	if err := run(s, logger); err != nil {
		logger.Error("terrain-view failed", "err", err)
		os.Exit(1)
	}
}

func setupWindow(s config.Settings) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	width, height := s.Map.Cols, s.Map.Rows
	for width < 400 && height < 400 {
		width, height = width*2, height*2
	}
	window, err := glfw.CreateWindow(width, height, "terrain", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	return window, nil
}

func run(s config.Settings, logger *slog.Logger) error {
	opts := s.Options()
	opts.Log = logger
	b, err := terrain.NewBuilder(opts)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	window, err := setupWindow(s)
	if err != nil {
		return err
	}
	if err := gl.Init(); err != nil {
		return err
	}
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	quad, err := graphics.NewQuad()
	if err != nil {
		return err
	}
	defer quad.Delete()
	tex := graphics.NewTexture(render.Colorize(terrain.NewMatrix(s.Map.Rows, s.Map.Cols)))
	defer tex.Delete()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := terrain.NewProgress(s.Capacity)
	h := b.Start(ctx, sink)

	gl.ClearColor(0, 0, 0, 1)
	seq := 0
	reported := false
	for !window.ShouldClose() {
		if m, err := sink.Receive(pollTimeout); err == nil {
			seq++
			img := render.Colorize(m)
			render.Label(img, 4, 4, fmt.Sprintf("seed %d  #%d", b.Seed(), seq))
			tex.Upload(img)
			window.SetTitle(fmt.Sprintf("terrain - seed %d - %d snapshots", b.Seed(), seq))
		}
		if !reported && h.Finished() && sink.Len() == 0 {
			reported = true
			if _, err := h.Wait(); err != nil {
				logger.Error("generation failed", "err", err)
			} else {
				logger.Info("generation complete", "snapshots", seq, "profile", b.Profile().TopN(3))
			}
		}

		fbw, fbh := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(fbw), int32(fbh))
		gl.Clear(gl.COLOR_BUFFER_BIT)
		quad.Draw(tex)

		window.SwapBuffers()
		glfw.PollEvents()
	}

	// Closing the window early abandons the generation.
	sink.Close()
	cancel()
	<-h.Done()
	return nil
}
