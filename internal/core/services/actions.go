package services

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driving"
)

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// Ensure ActionService implements the interface.
var _ driving.ActionService = (*ActionService)(nil)

// ActionService provides OS-level actions on answers and cited sources:
// copying an answer to the clipboard and opening a source document in its
// default viewer.
type ActionService struct{}

// NewActionService creates a new action service.
func NewActionService() *ActionService {
	return &ActionService{}
}

// CopyText copies the text to the system clipboard.
func (s *ActionService) CopyText(_ context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	return copyToClipboard(text)
}

// OpenPath opens a file or URL with the system default application.
func (s *ActionService) OpenPath(_ context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("nothing to open")
	}
	return openPath(normalisePath(path))
}

// copyToClipboard copies text to the system clipboard using OS-specific commands.
func copyToClipboard(text string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case osDarwin:
		cmd = exec.Command("pbcopy")
	case osLinux:
		// Try xclip first, fall back to xsel
		if _, err := exec.LookPath("xclip"); err == nil {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		} else if _, err := exec.LookPath("xsel"); err == nil {
			cmd = exec.Command("xsel", "--clipboard", "--input")
		} else {
			return fmt.Errorf("no clipboard utility found (install xclip or xsel)")
		}
	case osWindows:
		cmd = exec.Command("cmd", "/c", "clip")
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// openPath opens a URL/path using the system default handler.
func openPath(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case osDarwin:
		cmd = exec.Command("open", path)
	case osLinux:
		cmd = exec.Command("xdg-open", path)
	case osWindows:
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// normalisePath strips the file:// scheme; plain paths and web URLs pass
// through unchanged.
func normalisePath(path string) string {
	if strings.HasPrefix(path, "file://") {
		return strings.TrimPrefix(path, "file://")
	}
	return path
}
