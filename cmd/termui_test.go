package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyQ() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}
}

func TestUpdate_QuitsFromMainMenu(t *testing.T) {
	m := initialModel()
	_, cmd := m.Update(keyQ())
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg from main menu q")
	}
}

func TestUpdate_QIsTypedIntoDocumentID(t *testing.T) {
	m := initialModel()
	m.selected = true
	m.downloadType = "single"
	m.docID = "docid/123?"

	updated, cmd := m.Update(keyQ())
	if cmd != nil {
		t.Fatal("typing must not quit or leave input mode")
	}
	got := updated.(uiModel)
	if got.docID != "docid/123?q" {
		t.Errorf("docID = %q, want %q", got.docID, "docid/123?q")
	}
	if !got.selected {
		t.Error("input mode should survive typing q")
	}
}

func TestUpdate_QIsTypedIntoSettingValue(t *testing.T) {
	m := initialModel()
	m.settingsMode = true
	m.editingValue = true
	m.editValue = "out"

	updated, cmd := m.Update(keyQ())
	if cmd != nil {
		t.Fatal("typing must not leave settings mode")
	}
	got := updated.(uiModel)
	if got.editValue != "outq" {
		t.Errorf("editValue = %q, want %q", got.editValue, "outq")
	}
	if !got.settingsMode || !got.editingValue {
		t.Error("edit mode should survive typing q")
	}
}
