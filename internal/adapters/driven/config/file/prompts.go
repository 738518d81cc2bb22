package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/paperchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperchat-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
//
// Watch starts a filesystem watcher that clears the cache when a prompt
// file changes, so edits take effect mid-conversation.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error

	watchOnce sync.Once
	watcher   *fsnotify.Watcher
	stopChan  chan struct{}
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptQuestionRefine: `Given the conversation so far, rewrite the user's latest message as a standalone question that can be understood without the conversation. Preserve the user's intent and wording where possible. Return ONLY the rewritten question, nothing else.`,

	driven.PromptAnswerSystem: `You are a careful assistant answering questions about the user's documents.
Answer using only the context below. If the context does not contain the
answer, say you don't know instead of guessing. Mention the source file and
page when citing.

Context:
%s`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.paperchat/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".paperchat", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
		stopChan:  make(chan struct{}),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Watch starts watching the prompt directory and clears the cache when a
// prompt file is written. Safe to call once; later calls are no-ops.
// Callers that Watch must Close when done.
func (s *PromptStore) Watch() error {
	var err error
	s.watchOnce.Do(func() {
		// The directory must exist before fsnotify can watch it.
		s.initOnce.Do(s.initialise)
		if s.initErr != nil {
			err = s.initErr
			return
		}

		var watcher *fsnotify.Watcher
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			err = fmt.Errorf("create prompt watcher: %w", err)
			return
		}
		if addErr := watcher.Add(s.promptDir); addErr != nil {
			watcher.Close()
			err = fmt.Errorf("watch prompt directory: %w", addErr)
			return
		}

		s.watcher = watcher
		go s.watchLoop()
	})
	return err
}

// Close stops the filesystem watcher if one was started.
func (s *PromptStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.stopChan)
	return s.watcher.Close()
}

// watchLoop drains watcher events, debouncing bursts so an editor's
// write-then-rename sequence triggers one reload, not three.
func (s *PromptStore) watchLoop() {
	debounce := make(map[string]*time.Timer)

	for {
		select {
		case <-s.stopChan:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Ext(event.Name) != ".txt" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if timer, exists := debounce[event.Name]; exists {
				timer.Stop()
			}
			debounce[event.Name] = time.AfterFunc(500*time.Millisecond, func() {
				logger.Debug("Prompt file changed, reloading: %s", event.Name)
				s.Reload()
			})

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Debug("Prompt watcher error: %v", err)
		}
	}
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Paperchat Prompts

This directory contains customisable prompts used by Paperchat's LLM features.

## Files

- ` + "`question_refine.txt`" + ` - Rewrites follow-up messages into standalone questions
- ` + "`answer_system.txt`" + ` - System prompt for answering from retrieved passages

## Customisation

Edit any file to customise LLM behaviour. A running chat session picks up
changes automatically; one-shot commands read the files on each run.

## Format Placeholders

- ` + "`answer_system.txt`" + ` must keep a ` + "`%s`" + ` placeholder: it receives the
  retrieved context block.
- ` + "`question_refine.txt`" + ` takes no placeholders: the conversation history
  and the new question are passed as chat messages.
`
	return os.WriteFile(path, []byte(content), 0600)
}
