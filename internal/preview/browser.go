package preview

import (
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserCommand returns the platform launcher and leading args used to open
// a URL or file in the default browser.
func BrowserCommand() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

// OpenInBrowser launches the system browser for a local file path or URL.
// The launch is fire-and-forget; the browser's own exit status is not
// observed.
func OpenInBrowser(target string) error {
	name, args := BrowserCommand()
	cmd := exec.Command(name, append(args, target)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}
