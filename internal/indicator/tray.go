package indicator

import (
	"context"

	"github.com/getlantern/systray"
)

var trayTitles = map[status]string{
	statusIdle:       "parla",
	statusRecording:  "parla ●",
	statusProcessing: "parla …",
	statusError:      "parla !",
}

type traySurface struct{}

func (traySurface) show(_ context.Context, s status, text string, _ int) error {
	systray.SetTitle(trayTitles[s])
	systray.SetTooltip(text)
	return nil
}

func (traySurface) hide(context.Context) error {
	systray.SetTitle(trayTitles[statusIdle])
	systray.SetTooltip("Idle")
	return nil
}

// RunTray starts the tray loop when the tray backend is active. onQuit runs
// when the user picks Quit. The returned func tears the tray down.
func (i *Indicator) RunTray(onQuit func()) func() {
	if _, ok := i.surface.(traySurface); !ok {
		return func() {}
	}

	go systray.Run(func() {
		systray.SetTitle(trayTitles[statusIdle])
		systray.SetTooltip("Push-to-talk dictation")
		quit := systray.AddMenuItem("Quit", "Stop the parla daemon")
		go func() {
			<-quit.ClickedCh
			i.logger.Info("quit requested from tray")
			onQuit()
		}()
	}, func() {})

	return systray.Quit
}
