package visualization

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// openerCommand returns the command that opens target in the desktop's
// default viewer on goos.
func openerCommand(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "linux":
		return exec.Command("xdg-open", target), nil
	case "darwin":
		return exec.Command("open", target), nil
	case "windows":
		return exec.Command("cmd", "/c", "start", "", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// Open shows the generated file in the default viewer, usually a browser.
// It does not wait for the viewer to exit.
func Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	cmd, err := openerCommand(runtime.GOOS, abs)
	if err != nil {
		return err
	}
	return cmd.Start()
}
