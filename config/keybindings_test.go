package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetActionKey(t *testing.T) {
	tests := []struct {
		name   string
		kb     *KeyBindingsConfig
		action string
		want   string
	}{
		{name: "primary default", kb: DefaultKeybindings(), action: "new_chat", want: "ctrl+n"},
		{name: "secondary default", kb: DefaultKeybindings(), action: "half_page_down", want: "alt+j"},
		{name: "no modifier", kb: DefaultKeybindings(), action: "page_up", want: "pgup"},
		{name: "unknown action", kb: DefaultKeybindings(), action: "plugin_manager", want: ""},
		{
			name:   "shifted letter",
			kb:     &KeyBindingsConfig{Modifiers: ModifierConfig{Primary: "alt", Secondary: "alt+shift"}},
			action: "half_page_up",
			want:   "alt+K",
		},
		{
			name:   "shift kept for named keys",
			kb:     &KeyBindingsConfig{Modifiers: ModifierConfig{Primary: "alt", Secondary: "alt+shift"}},
			action: "half_page_up_arrow",
			want:   "alt+shift+up",
		},
		{
			name:   "override wins",
			kb:     &KeyBindingsConfig{Actions: map[string]string{"next_session": "ctrl+o"}},
			action: "next_session",
			want:   "ctrl+o",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kb.GetActionKey(tt.action))
		})
	}
}

func TestDisplayActionKey(t *testing.T) {
	kb := DefaultKeybindings()
	assert.Equal(t, "Ctrl+Down", kb.DisplayActionKey("next_session"))
	assert.Equal(t, "Enter", kb.DisplayActionKey("send"))
	assert.Equal(t, "Alt+Shift+J", capitalizeKeybinding("alt+J"))
	assert.Empty(t, kb.DisplayActionKey("missing"))
}

func TestLoadKeybindings(t *testing.T) {
	dir := t.TempDir()

	kb, err := LoadKeybindings(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultKeybindings(), kb)
	assert.FileExists(t, filepath.Join(dir, keybindingsFile))

	// The written template decodes to the defaults
	kb, err = LoadKeybindings(dir)
	require.NoError(t, err)
	assert.Equal(t, "ctrl+n", kb.GetActionKey("new_chat"))

	content := "[modifiers]\nprimary = \"alt\"\nsecondary = \"ctrl\"\n\n[actions]\nquit = \"ctrl+x\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, keybindingsFile), []byte(content), 0600))
	kb, err = LoadKeybindings(dir)
	require.NoError(t, err)
	assert.Equal(t, "alt+n", kb.GetActionKey("new_chat"))
	assert.Equal(t, "ctrl+x", kb.GetActionKey("quit"))
}

func TestLoadKeybindingsRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"shift alone":    "[modifiers]\nprimary = \"shift\"\n",
		"same modifiers": "[modifiers]\nprimary = \"alt\"\nsecondary = \"alt\"\n",
		"unknown action": "[actions]\nsettings = \"ctrl+s\"\n",
		"bad toml":       "[modifiers\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, keybindingsFile), []byte(content), 0600))
			_, err := LoadKeybindings(dir)
			assert.Error(t, err)
		})
	}
}
