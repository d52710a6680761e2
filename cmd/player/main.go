package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/petrichor-player/petrichor/internal"
)

// Host is bound into the page as window.go.main.Host.
type Host struct {
	username string
}

// OsUsername answers the bundle's username request.
func (h *Host) OsUsername() string {
	return h.username
}

func main() {
	bundleDir := flag.String("bundle", defaultBundleDir(), "bundle directory to play")
	flag.Parse()

	data, err := os.ReadFile(filepath.Join(*bundleDir, "project.hopscotch"))
	if err != nil {
		log.Fatalf("read project: %v", err)
	}
	project, err := internal.ParseProject(data)
	if err != nil {
		log.Fatalf("parse project: %v", err)
	}
	size := project.StageSize()
	host := &Host{username: internal.HostUsername()}

	if err := wails.Run(&options.App{
		Title:         fmt.Sprintf("%s by %s", project.Title(), project.Author()),
		Width:         size.Width,
		Height:        size.Height,
		DisableResize: false,
		AssetServer: &assetserver.Options{
			Assets: os.DirFS(*bundleDir),
		},
		OnStartup: func(ctx context.Context) {
			log.Printf("Playing %s from %s", project.Title(), *bundleDir)
		},
		Bind:               []interface{}{host},
		LogLevel:           logger.INFO,
		LogLevelProduction: logger.ERROR,
		BackgroundColour:   &options.RGBA{R: 0, G: 0, B: 0, A: 255},
	}); err != nil {
		log.Fatalf("Error running player: %v", err)
	}
}

// defaultBundleDir is the directory holding the executable, so the player
// can be dropped into a bundle and started without arguments.
func defaultBundleDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	dir := filepath.Dir(exe)
	if _, err := os.Stat(filepath.Join(dir, "project.hopscotch")); err != nil {
		return "."
	}
	return dir
}
