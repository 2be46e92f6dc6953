package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/1broseidon/regionsel/internal/capture"
	"github.com/1broseidon/regionsel/internal/clipboard"
	"github.com/1broseidon/regionsel/internal/palette"
)

const (
	actionCopyGeometry = "copy-geometry"
	actionCopyImage    = "copy-image"
	actionSaveImage    = "save-image"
	actionExec         = "exec"
)

// menuItems lists the actions that apply to a result. Image actions need
// captured pixels; the command needs --exec.
func menuItems(hasImage bool, f capture.Format, command string) []palette.Item {
	items := []palette.Item{{Label: "Copy geometry", Action: actionCopyGeometry, Icon: "edit-copy"}}
	if hasImage {
		if f == capture.FormatPNG {
			items = append(items, palette.Item{Label: "Copy image", Action: actionCopyImage, Icon: "edit-copy"})
		}
		items = append(items, palette.Item{Label: "Save image to Pictures", Action: actionSaveImage, Icon: "document-save"})
	}
	if command != "" {
		items = append(items, palette.Item{Label: "Run: " + command, Action: actionExec, Icon: "system-run"})
	}
	return items
}

// picturesPath names a new screenshot file under ~/Pictures.
func picturesPath(now time.Time, f capture.Format) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	name := "regionsel-" + now.Format("20060102-150405") + "." + string(f)
	return filepath.Join(home, "Pictures", name), nil
}

func runMenu(ctx context.Context, opts selectOptions, out selectResult, encoded []byte, f capture.Format) (int, error) {
	backend, err := palette.NewBackend(opts.menuBackend)
	if err != nil {
		return 1, err
	}
	choice, err := backend.Show(out.Geometry, menuItems(encoded != nil, f, opts.exec))
	if errors.Is(err, palette.ErrCancelled) {
		return 0, nil
	}
	if err != nil {
		return 1, err
	}

	switch choice.Action {
	case actionCopyGeometry:
		err = clipboard.CopyText(ctx, out.Geometry, opts.copyHold)
	case actionCopyImage:
		err = clipboard.CopyPNG(ctx, encoded, opts.copyHold)
	case actionSaveImage:
		var path string
		path, err = picturesPath(time.Now(), f)
		if err == nil {
			err = os.MkdirAll(filepath.Dir(path), 0755)
		}
		if err == nil {
			err = os.WriteFile(path, encoded, 0644)
		}
		if err == nil {
			fmt.Fprintln(os.Stderr, "saved", path)
		}
	case actionExec:
		if out.Image == "" && encoded != nil {
			if out.Image, err = writeTempImage(encoded, f); err != nil {
				return 1, err
			}
		}
		err = runOnSelect(ctx, opts.exec, out)
	}
	if err != nil {
		return 1, err
	}
	return 0, nil
}
