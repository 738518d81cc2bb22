package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/paperchat-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/paperchat-cli/internal/core/domain"
)

func TestNewBar(t *testing.T) {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := NewBar(s, km)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, "", bar.Message())
	assert.Nil(t, bar.Info())
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_Init(t *testing.T) {
	bar := NewBar(nil, nil)

	cmd := bar.Init()

	assert.Nil(t, cmd)
}

func TestStatusBar_Update(t *testing.T) {
	bar := NewBar(nil, nil)

	msg := tea.KeyMsg{Type: tea.KeyEnter}
	updated, cmd := bar.Update(msg)

	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_SetState(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetState(StateThinking)
	assert.Equal(t, StateThinking, bar.State())

	bar.SetState(StateIndexing)
	assert.Equal(t, StateIndexing, bar.State())
}

func TestStatusBar_SetInfo(t *testing.T) {
	bar := NewBar(nil, nil)

	info := &domain.SessionInfo{DocumentCount: 3, ChunkCount: 9, TurnCount: 1}
	bar.SetInfo(info)

	assert.Equal(t, info, bar.Info())
}

func TestStatusBar_View(t *testing.T) {
	t.Run("ready without info", func(t *testing.T) {
		bar := NewBar(nil, nil)
		bar.SetWidth(80)

		view := bar.View()
		assert.Contains(t, view, "Ready")
	})

	t.Run("ready with info shows counts", func(t *testing.T) {
		bar := NewBar(nil, nil)
		bar.SetWidth(100)
		bar.SetInfo(&domain.SessionInfo{DocumentCount: 3, ChunkCount: 9, TurnCount: 2})

		view := bar.View()
		assert.Contains(t, view, "3 pages")
		assert.Contains(t, view, "9 chunks")
		assert.Contains(t, view, "2 turns")
	})

	t.Run("thinking state", func(t *testing.T) {
		bar := NewBar(nil, nil)
		bar.SetWidth(80)
		bar.SetState(StateThinking)

		assert.Contains(t, bar.View(), "Thinking")
	})

	t.Run("error state shows message", func(t *testing.T) {
		bar := NewBar(nil, nil)
		bar.SetWidth(80)
		bar.SetState(StateError)
		bar.SetMessage("it broke")

		assert.Contains(t, bar.View(), "it broke")
	})

	t.Run("transient message replaces counts", func(t *testing.T) {
		bar := NewBar(nil, nil)
		bar.SetWidth(80)
		bar.SetInfo(&domain.SessionInfo{DocumentCount: 1})
		bar.SetMessage("Copied answer")

		assert.Contains(t, bar.View(), "Copied answer")
	})
}

func TestStatusBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
}

func TestStatusBar_Width(t *testing.T) {
	bar := NewBar(nil, nil)

	bar.SetWidth(120)
	assert.Equal(t, 120, bar.Width())
}
