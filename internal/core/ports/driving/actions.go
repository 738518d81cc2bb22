package driving

import "context"

// ActionService provides OS-level actions on answers and cited sources.
type ActionService interface {
	// CopyText copies text to the system clipboard.
	CopyText(ctx context.Context, text string) error

	// OpenPath opens a file or URL with the system default application.
	OpenPath(ctx context.Context, path string) error
}
