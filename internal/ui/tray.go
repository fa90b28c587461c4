package ui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/shortsplice/splice-agent/internal/render"
	"github.com/shortsplice/splice-agent/internal/session"
)

type Tray struct {
	sessions *session.Manager
	renderer *render.Renderer
	logger   *slog.Logger

	statusItem   *systray.MenuItem
	sessionsItem *systray.MenuItem

	mu sync.Mutex

	onAddFolder func() error
	onQuit      func()
}

type TrayConfig struct {
	Sessions    *session.Manager
	Renderer    *render.Renderer
	Logger      *slog.Logger
	OnAddFolder func() error
	OnQuit      func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		sessions:    cfg.Sessions,
		renderer:    cfg.Renderer,
		logger:      cfg.Logger,
		onAddFolder: cfg.OnAddFolder,
		onQuit:      cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Splice")
	systray.SetTooltip("Splice Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.sessionsItem = systray.AddMenuItem("Sessions: 0", "Open editing sessions")
	t.sessionsItem.Disable()

	systray.AddSeparator()

	addFolderItem := systray.AddMenuItem("Add Folder...", "Add a folder of source videos")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Splice Agent")

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.refresh()
			case <-addFolderItem.ClickedCh:
				t.handleAddFolder()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := "Idle"
	if t.renderer != nil && t.renderer.Running() > 0 {
		status = "Rendering"
	}
	t.statusItem.SetTitle("Status: " + status)

	if t.sessions != nil {
		t.sessionsItem.SetTitle(fmt.Sprintf("Sessions: %d", t.sessions.Count()))
	}
}

func (t *Tray) handleAddFolder() {
	if t.onAddFolder != nil {
		if err := t.onAddFolder(); err != nil {
			t.logger.Error("failed to add folder", "error", err)
		}
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
