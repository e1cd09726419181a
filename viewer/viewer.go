package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"rolf/config"
	"rolf/logging"
	"rolf/preview"
	"rolf/ui"

	"github.com/fsnotify/fsnotify"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"
)

// StatusEvent carries a status line update from a render task to the main
// event loop.
type StatusEvent struct {
	tcell.EventTime
	Gate    *preview.Gate
	Message string
	IsError bool
}

// RenderDoneEvent is posted when a render task finishes.
type RenderDoneEvent struct {
	tcell.EventTime
	Task *preview.Task
	Err  error
}

type phase int

const (
	phaseRendering phase = iota // no key pressed yet
	phaseWaiting                // a key asked to wait for the render
	phaseFinished               // the next key exits
)

type Viewer struct {
	screen tcell.Screen
	cfg    *config.Config

	// ttyMu serialises protocol writes with screen updates so escape
	// sequences never interleave on the terminal.
	ttyMu sync.Mutex
	tty   io.Writer

	renderer *preview.Renderer
	sched    *preview.Scheduler
	status   *ui.StatusBar

	cells  preview.Cells
	window preview.WindowPixels

	path  string
	ext   string
	task  *preview.Task
	gate  *preview.Gate
	phase phase

	// exitPending records a key pressed while waiting for the render.
	exitPending bool
	quit        bool
	err         error

	fileWatcher *fsnotify.Watcher
}

// New builds a viewer drawing on screen and writing protocol bytes to tty.
// The terminal geometry is fixed for the viewer's lifetime.
func New(cfg *config.Config, screen tcell.Screen, tty io.Writer, cells preview.Cells, win preview.WindowPixels) *Viewer {
	v := &Viewer{
		screen: screen,
		cfg:    cfg,
		tty:    tty,
		sched:  preview.NewScheduler(1),
		cells:  cells,
		window: win,
	}

	originX := cfg.OriginX(cells.Cols)
	v.status = ui.NewStatusBar(originX, 1, cells.Cols-originX)
	v.status.Theme = cfg.GetTheme()

	v.renderer = &preview.Renderer{
		Out:        lockedWriter{mu: &v.ttyMu, w: tty},
		Protocol:   ui.DetectProtocol(cfg.Protocol),
		Filter:     preview.ParseFilter(cfg.Filter),
		TempDir:    cfg.TempDir,
		TempPrefix: cfg.TempPrefix,
	}
	return v
}

// Run checks the terminal, sets up the screen and previews path until the
// user exits. The screen is always torn down before Run returns.
func Run(cfg *config.Config, path string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("stdout is not a terminal")
	}
	if !preview.IsImageFile(path) {
		return fmt.Errorf("%s: not a supported image", path)
	}

	tty, err := ui.OpenTTY()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer tty.Close()

	win, cells, err := ui.QueryWindowPixels(tty)
	if err != nil {
		return fmt.Errorf("query window size: %w", err)
	}
	if !win.Valid() {
		return fmt.Errorf("%w: terminal does not report its size in pixels", preview.ErrNoPixelGeometry)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	if w, h := screen.Size(); w > 0 && h > 0 {
		cells = preview.Cells{Cols: w, Rows: h}
	}

	v := New(cfg, screen, tty, cells, win)
	err = v.Run(path)

	screen.Clear()
	screen.Fini()
	return err
}

// Run previews path and processes events until the user exits. It returns
// the render error, if any; an aborted render is not an error.
func (v *Viewer) Run(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	v.path = abs
	v.ext = preview.Ext(abs)
	logging.Info("previewing %s with %s", v.path, v.renderer.Protocol)

	if v.cfg.Watch {
		v.setupFileWatcher()
	}

	v.start()

	for !v.quit {
		v.draw()
		ev := v.screen.PollEvent()
		if ev == nil {
			break
		}
		v.handleEvent(ev)
	}

	v.stop()
	if v.fileWatcher != nil {
		v.fileWatcher.Close()
	}
	if v.renderer.Protocol == preview.ProtoKitty {
		v.ttyMu.Lock()
		preview.ClearKitty(v.tty)
		v.ttyMu.Unlock()
	}
	return v.err
}

// start spawns a render of v.path with a fresh gate.
func (v *Viewer) start() {
	gate := preview.NewGate()
	req := preview.Request{
		Path:    v.path,
		Ext:     v.ext,
		Cells:   v.cells,
		Window:  v.window,
		OriginX: v.cfg.OriginX(v.cells.Cols),
		Gate:    gate,
	}
	screen := v.screen
	r := *v.renderer
	r.Status = func(msg string) {
		ev := &StatusEvent{Gate: gate, Message: msg}
		ev.SetEventNow()
		screen.PostEvent(ev)
	}
	task := v.sched.Spawn(context.Background(), func(ctx context.Context) error {
		return r.Render(ctx, req)
	})
	v.task = task
	v.gate = gate

	go func() {
		ev := &RenderDoneEvent{Task: task, Err: task.Wait()}
		ev.SetEventNow()
		screen.PostEvent(ev)
	}()
}

// stop aborts the current render and guarantees it writes nothing more.
func (v *Viewer) stop() {
	if v.task == nil {
		return
	}
	v.task.Abort()
	v.gate.SetAllowed(false)
}

func (v *Viewer) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		v.handleKey(ev)
	case *StatusEvent:
		// Progress from an aborted or replaced render is stale.
		if ev.Gate == v.gate && ev.Gate.Allowed() {
			v.status.Set(ev.Message, ev.IsError)
		}
	case *RenderDoneEvent:
		v.handleRenderDone(ev)
	case *FileWatchEvent:
		v.handleFileWatchEvent(ev)
	}
}

func (v *Viewer) handleKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		v.stop()
		v.quit = true
		return
	}

	switch v.phase {
	case phaseRendering:
		if ev.Key() == tcell.KeyEscape || (ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			v.stop()
			v.status.Set("Aborted.", false)
			v.phase = phaseFinished
			return
		}
		select {
		case <-v.task.Done():
			v.phase = phaseFinished
		default:
			v.phase = phaseWaiting
		}
	case phaseWaiting:
		v.exitPending = true
	case phaseFinished:
		v.quit = true
	}
}

func (v *Viewer) handleRenderDone(ev *RenderDoneEvent) {
	// A render replaced by the watcher reports late; ignore it.
	if ev.Task != v.task {
		return
	}

	switch {
	case ev.Err == nil:
		if v.status.Message == "Loading..." {
			v.status.Set("", false)
		}
	case errors.Is(ev.Err, context.Canceled):
		logging.Debug("render of %s aborted", v.path)
	default:
		logging.Error("render %s: %v", v.path, ev.Err)
		v.status.Set(ev.Err.Error(), true)
		v.err = ev.Err
	}

	if v.phase == phaseWaiting {
		v.phase = phaseFinished
		if v.exitPending {
			v.quit = true
		}
	}
}

func (v *Viewer) draw() {
	v.status.Render(v.screen)
	v.ttyMu.Lock()
	v.screen.Show()
	v.ttyMu.Unlock()
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
