package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
)

const barHeight = 30

var (
	barFill     = color.RGBA{R: 0, G: 160, B: 0, A: 255}
	barOutline  = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	alarmColour = color.RGBA{R: 200, G: 0, B: 0, A: 255}
)

// Scheduler runs alarm expiry on the fyne main goroutine
type Scheduler struct{}

func (Scheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, func() { fyne.Do(f) })
}

var _ controller.Scheduler = Scheduler{}

type DoseUI struct {
	c        *controllerWrapper
	source   Controller
	barWidth int
	logger   *slog.Logger

	window fyne.Window

	goalScreen  *fyne.Container
	pedalScreen *fyne.Container

	goalEntry     *widget.Entry
	valueLabel    *widget.Label
	goalLabel     *widget.Label
	progressLabel *widget.Label
	alarmText     *canvas.Text
	bar           *canvas.Rectangle
	elapsed       *timer
}

func NewDoseUI(c Controller, barWidth int, logger *slog.Logger) *DoseUI {
	if barWidth <= 0 {
		barWidth = controller.DefaultConfig().BarWidth
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &DoseUI{
		c:        &controllerWrapper{c: c, logger: logger},
		source:   c,
		barWidth: barWidth,
		logger:   logger,
	}
	return d
}

// Run shows the window and blocks until it is closed or ctx is done
func (d *DoseUI) Run(ctx context.Context) {
	application := app.New()
	d.window = application.NewWindow("Pedal Dose")

	d.elapsed = newTimer()
	d.elapsed.Go()
	defer d.elapsed.Stop()

	d.goalScreen = d.createGoalScreen()
	d.pedalScreen = d.createPedalScreen()
	d.show(screenFor(d.source.Snapshot()))

	// fyne.Do needs the app, so events are only rendered from here on
	d.source.Subscribe(func(e controller.Event) {
		fyne.Do(func() { d.render(e) })
	})

	go func() {
		<-ctx.Done()
		fyne.Do(func() {
			application.Quit()
		})
	}()

	d.window.SetContent(container.NewStack(d.goalScreen, d.pedalScreen))
	d.window.Resize(fyne.NewSize(800, 480))
	d.logger.Info("starting ui", "bar_width", d.barWidth)
	d.window.ShowAndRun()
}

func (d *DoseUI) createGoalScreen() *fyne.Container {
	d.goalEntry = widget.NewEntry()
	d.goalEntry.SetPlaceHolder("Goal")
	d.goalEntry.OnSubmitted = d.c.SubmitGoal

	confirm := widget.NewButton("Confirm", func() {
		d.c.SubmitGoal(d.goalEntry.Text)
	})

	return container.NewGridWithColumns(2,
		createKeypad(d.goalEntry),
		container.NewVBox(
			widget.NewLabel("Enter goal:"),
			d.goalEntry,
			confirm,
		),
	)
}

func createKeypad(entry *widget.Entry) *fyne.Container {
	keys := []fyne.CanvasObject{}
	for i := 1; i <= 9; i++ {
		keys = append(keys, digitButton(entry, strconv.Itoa(i)))
	}
	keys = append(keys,
		widget.NewButton("Clear", func() { entry.SetText("") }),
		digitButton(entry, "0"),
		layout.NewSpacer(),
	)

	return container.NewGridWithColumns(3, keys...)
}

func digitButton(entry *widget.Entry, digit string) *widget.Button {
	return widget.NewButton(digit, func() {
		entry.SetText(entry.Text + digit)
	})
}

func (d *DoseUI) createPedalScreen() *fyne.Container {
	d.valueLabel = widget.NewLabel("")
	d.goalLabel = widget.NewLabel("")
	d.progressLabel = widget.NewLabel("")

	d.alarmText = canvas.NewText("", alarmColour)
	d.alarmText.TextSize = 32
	d.alarmText.TextStyle = fyne.TextStyle{Bold: true}

	outline := canvas.NewRectangle(color.Transparent)
	outline.StrokeColor = barOutline
	outline.StrokeWidth = 1
	outline.Resize(fyne.NewSize(float32(d.barWidth), barHeight))

	d.bar = canvas.NewRectangle(barFill)
	d.bar.Resize(fyne.NewSize(0, barHeight))

	barContainer := container.NewGridWrap(
		fyne.NewSize(float32(d.barWidth), barHeight),
		container.NewWithoutLayout(d.bar, outline),
	)

	pedalButtons := []fyne.CanvasObject{}
	for _, kind := range pedaldose.PedalKinds {
		pedalButtons = append(pedalButtons, widget.NewButton(kind.String(), func() {
			d.c.Pedal(kind)
		}))
	}

	stop := widget.NewButton("Stop", d.c.Stop)
	stop.Importance = widget.DangerImportance

	return container.NewVBox(
		container.NewHBox(
			container.NewPadded(d.valueLabel),
			container.NewPadded(d.goalLabel),
			layout.NewSpacer(),
			container.NewPadded(d.elapsed.text),
		),
		d.progressLabel,
		container.NewCenter(barContainer),
		container.NewCenter(d.alarmText),
		container.NewGridWithColumns(len(pedalButtons), pedalButtons...),
		stop,
	)
}

func (d *DoseUI) show(s screen) {
	switch s {
	case screenPedal:
		d.goalScreen.Hide()
		d.pedalScreen.Show()
	default:
		d.pedalScreen.Hide()
		d.goalScreen.Show()
	}
}

// render runs on the fyne main goroutine
func (d *DoseUI) render(e controller.Event) {
	switch e.Type {
	case controller.EventGoalSet:
		d.goalEntry.SetText("")
		d.elapsed.Set(e.Time)
	case controller.EventGoalRejected, controller.EventPedalRejected:
		dialog.ShowError(e.Err, d.window)
	case controller.EventStopped, controller.EventAlarmExpired:
		d.elapsed.Set(time.Time{})
	}

	s := e.Snapshot
	d.valueLabel.SetText(fmt.Sprintf("Current: %d", s.Accumulated))
	d.goalLabel.SetText(fmt.Sprintf("Goal: %d", s.Goal))
	d.progressLabel.SetText("Progress: " + s.Progress.String())
	d.bar.Resize(fyne.NewSize(float32(s.Progress.Width), barHeight))

	d.alarmText.Text = ""
	if s.AlarmVisible {
		d.alarmText.Text = "Complete!!!"
	}
	d.alarmText.Refresh()

	d.show(screenFor(s))
}
