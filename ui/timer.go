package ui

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

// timer shows the time since the current session's goal was set
type timer struct {
	startTime time.Time
	mtx       *sync.Mutex
	text      *canvas.Text
	stop      chan struct{}
	stopOnce  sync.Once
}

func newTimer() *timer {
	return &timer{
		startTime: time.Time{},
		mtx:       &sync.Mutex{},
		text:      canvas.NewText(formatElapsed(0), nil),
		stop:      make(chan struct{}),
	}
}

// Set starts counting from start. A zero time resets the display
func (t *timer) Set(start time.Time) {
	t.mtx.Lock()
	t.startTime = start
	t.mtx.Unlock()
}

func (t *timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

func (t *timer) Go() {
	ticker := time.NewTicker(time.Second)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
			}

			fyne.Do(func() {
				t.mtx.Lock()
				var elapsed time.Duration
				if !t.startTime.IsZero() {
					elapsed = time.Since(t.startTime)
				}
				t.mtx.Unlock()

				t.text.Text = formatElapsed(elapsed)
				t.text.Refresh()
			})
		}
	}()
}

func formatElapsed(elapsed time.Duration) string {
	minutes := int(elapsed.Minutes())
	seconds := int(elapsed.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
