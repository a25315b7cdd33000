package indicator

import (
	"context"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/rbright/parla/internal/hypr"
)

type surface interface {
	show(ctx context.Context, s status, text string, timeoutMS int) error
	hide(ctx context.Context) error
}

type noneSurface struct{}

func (noneSurface) show(context.Context, status, string, int) error { return nil }
func (noneSurface) hide(context.Context) error                      { return nil }

type hyprSurface struct{}

func (hyprSurface) show(ctx context.Context, s status, text string, timeoutMS int) error {
	icon, color := 1, "rgb(89b4fa)"
	switch s {
	case statusProcessing:
		color = "rgb(cba6f7)"
	case statusError:
		icon, color = 3, "rgb(f38ba8)"
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

func (hyprSurface) hide(ctx context.Context) error {
	return hypr.DismissNotify(ctx)
}

// desktopSurface replaces one freedesktop notification in place.
type desktopSurface struct {
	appName string

	mu sync.Mutex
	id uint32
}

func (d *desktopSurface) show(ctx context.Context, _ status, text string, timeoutMS int) error {
	d.mu.Lock()
	replaceID := d.id
	d.mu.Unlock()

	appName := d.appName
	if appName == "" {
		appName = "parla-indicator"
	}
	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.id = id
	d.mu.Unlock()
	return nil
}

func (d *desktopSurface) hide(ctx context.Context) error {
	d.mu.Lock()
	id := d.id
	d.id = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// notifySurface posts one-shot notifications; they cannot be withdrawn.
type notifySurface struct{}

func (notifySurface) show(_ context.Context, s status, text string, _ int) error {
	if s == statusProcessing {
		return nil
	}
	return beeep.Notify("parla", text, "")
}

func (notifySurface) hide(context.Context) error { return nil }
