package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/dkorbel/svx2pdf/internal/catalog"
)

// app settings represents user configurable settings
type AppSettings struct {
	OutputFolder string // folder for finished PDFs
	PerPage      bool   // print page-by-page and merge
	Strict       bool   // fail on unconfirmed pages
	Overwrite    bool   // overwrite existing PDFs
	Concurrency  int    // concurrent downloads in batch mode
}

var defaultSettings = AppSettings{
	OutputFolder: "output",
	Concurrency:  1,
}

// model represents the state of our application
type uiModel struct {
	choices        []string
	cursor         int
	selected       bool
	downloadType   string
	docID          string
	booksDirectory string
	settings       AppSettings
	settingsMode   bool
	settingCursor  int
	settingOptions []string
	editingValue   bool
	editValue      string
	confirmation   string
}

func initialModel() uiModel {
	return uiModel{
		choices: []string{
			"Download a Book",
			"Batch Download from Books Folder",
			"Settings",
			"Quit",
		},
		booksDirectory: "books",
		settings:       defaultSettings,
		settingOptions: []string{
			"Output Folder",
			"Per-page Capture",
			"Strict Mode",
			"Overwrite Existing",
			"Batch Concurrency",
			"Back to Main Menu",
		},
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A49FA5"))

	settingLabelStyle = lipgloss.NewStyle().
				Width(20).
				Foreground(lipgloss.Color("#7D56F4"))

	settingValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))
)

func (m uiModel) Init() tea.Cmd {
	return nil
}

// update handles user interactions
func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// "q" is a regular character while typing a document id or a
			// setting value (catalog URLs carry query strings)
			if msg.String() == "q" && (m.selected && m.downloadType == "single" || m.settingsMode && m.editingValue) {
				return m.typeRunes(msg), nil
			}
			if !m.selected && !m.settingsMode {
				return m, tea.Quit
			} else if m.settingsMode {
				m.settingsMode = false
				m.editingValue = false
				return m, nil
			} else {
				m.selected = false
				m.confirmation = ""
				return m, nil
			}
		case "up", "k":
			if !m.selected && !m.settingsMode && m.cursor > 0 {
				m.cursor--
			} else if m.settingsMode && !m.editingValue && m.settingCursor > 0 {
				m.settingCursor--
			}
		case "down", "j":
			if !m.selected && !m.settingsMode && m.cursor < len(m.choices)-1 {
				m.cursor++
			} else if m.settingsMode && !m.editingValue && m.settingCursor < len(m.settingOptions)-1 {
				m.settingCursor++
			}
		case "enter":
			if m.settingsMode {
				if m.editingValue {
					switch m.settingCursor {
					case 0: // output folder
						if m.editValue != "" {
							m.settings.OutputFolder = m.editValue
						}
					case 4: // batch concurrency
						val, err := strconv.Atoi(m.editValue)
						if err == nil && val > 0 {
							m.settings.Concurrency = val
						}
					}
					m.editingValue = false
				} else if m.settingCursor == len(m.settingOptions)-1 {
					m.settingsMode = false
				} else {
					switch m.settingCursor {
					case 0: // output folder
						m.editValue = m.settings.OutputFolder
						m.editingValue = true
					case 1: // per-page (toggle)
						m.settings.PerPage = !m.settings.PerPage
					case 2: // strict (toggle)
						m.settings.Strict = !m.settings.Strict
					case 3: // overwrite (toggle)
						m.settings.Overwrite = !m.settings.Overwrite
					case 4: // batch concurrency
						m.editValue = fmt.Sprintf("%d", m.settings.Concurrency)
						m.editingValue = true
					}
				}
			} else if !m.selected {
				switch m.cursor {
				case 0: // single book
					m.downloadType = "single"
					m.selected = true
				case 1: // batch
					m.downloadType = "batch"
					m.selected = true
					m.confirmation = ""
				case 2: // settings
					m.settingsMode = true
					m.settingCursor = 0
					return m, nil
				case 3: // quit
					return m, tea.Quit
				}
			} else if m.downloadType == "single" {
				if m.docID != "" {
					return m, tea.Quit
				}
			}
		case "esc":
			if m.settingsMode && m.editingValue {
				m.editingValue = false
			} else if m.settingsMode {
				m.settingsMode = false
			} else if m.selected {
				m.selected = false
			}
		}
	}

	// remaining key presses feed the document id, a setting value or the
	// batch confirmation
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "up", "down", "ctrl+c", "esc":
			// handled above
		case "y", "Y":
			if m.selected && m.downloadType == "batch" {
				m.confirmation = "y"
				return m, tea.Quit
			}
			if keyMsg.Type == tea.KeyRunes {
				m = m.typeRunes(keyMsg)
			}
		case "n", "N":
			if m.selected && m.downloadType == "batch" {
				m.confirmation = ""
				m.selected = false
			} else if keyMsg.Type == tea.KeyRunes {
				m = m.typeRunes(keyMsg)
			}
		case "backspace":
			if m.selected && m.downloadType == "single" && len(m.docID) > 0 {
				m.docID = m.docID[:len(m.docID)-1]
			} else if m.settingsMode && m.editingValue && len(m.editValue) > 0 {
				m.editValue = m.editValue[:len(m.editValue)-1]
			}
		default:
			if keyMsg.Type == tea.KeyRunes {
				m = m.typeRunes(keyMsg)
			}
		}
	}

	return m, nil
}

func (m uiModel) typeRunes(keyMsg tea.KeyMsg) uiModel {
	if m.selected && m.downloadType == "single" {
		m.docID += string(keyMsg.Runes)
	} else if m.settingsMode && m.editingValue {
		m.editValue += string(keyMsg.Runes)
	}
	return m
}

// View renders the UI
func (m uiModel) View() string {
	if m.settingsMode {
		return m.settingsView()
	}

	if !m.selected {
		s := titleStyle.Render("ScholarVox Downloader") + "\n\n"
		s += "Select an option:\n\n"

		for i, choice := range m.choices {
			cursor := " "
			if m.cursor == i {
				cursor = ">"
				choice = selectedStyle.Render(choice)
			}
			s += fmt.Sprintf("%s %s\n", cursor, choice)
		}

		s += "\n" + infoStyle.Render("Press q to quit, arrow keys to navigate, enter to select")
		return s
	}

	switch m.downloadType {
	case "single":
		s := titleStyle.Render("ScholarVox Downloader - Single Book") + "\n\n"
		s += "Enter the document id (or catalog URL) of the book:\n"
		s += fmt.Sprintf("> %s\n", m.docID)
		s += "\nPress Enter to download, Esc to go back\n"
		return s
	case "batch":
		s := titleStyle.Render("ScholarVox Downloader - Batch Mode") + "\n\n"
		s += fmt.Sprintf("Starting batch download from: %s\n", m.booksDirectory)
		s += fmt.Sprintf("Concurrency: %d\n", m.settings.Concurrency)
		s += fmt.Sprintf("Output folder: %s\n\n", m.settings.OutputFolder)
		s += selectedStyle.Render("Are you sure you want to start the batch download? (y/n)")
		return s
	default:
		return "Unknown option"
	}
}

// settingsView renders the settings menu
func (m uiModel) settingsView() string {
	s := titleStyle.Render("ScholarVox Downloader - Settings") + "\n\n"

	for i, option := range m.settingOptions {
		cursor := " "
		if m.settingCursor == i {
			cursor = ">"
			option = selectedStyle.Render(option)
		}

		if i < len(m.settingOptions)-1 {
			s += fmt.Sprintf("%s %s", cursor, settingLabelStyle.Render(option))

			if m.editingValue && m.settingCursor == i {
				s += fmt.Sprintf(": %s_\n", m.editValue)
			} else {
				switch i {
				case 0:
					s += fmt.Sprintf(": %s\n", settingValueStyle.Render(m.settings.OutputFolder))
				case 1:
					s += fmt.Sprintf(": %s\n", settingValueStyle.Render(yesNo(m.settings.PerPage)))
				case 2:
					s += fmt.Sprintf(": %s\n", settingValueStyle.Render(yesNo(m.settings.Strict)))
				case 3:
					s += fmt.Sprintf(": %s\n", settingValueStyle.Render(yesNo(m.settings.Overwrite)))
				case 4:
					s += fmt.Sprintf(": %s\n", settingValueStyle.Render(fmt.Sprintf("%d", m.settings.Concurrency)))
				}
			}
		} else {
			s += fmt.Sprintf("%s %s\n", cursor, option)
		}
	}

	s += "\n" + infoStyle.Render("Press Enter to edit or toggle a setting, Esc to go back")
	return s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// RunTerminalUI starts the terminal UI and runs the download the user
// configured once the UI exits.
func RunTerminalUI() error {
	p := tea.NewProgram(initialModel())
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	finalModel := m.(uiModel)
	if !finalModel.selected {
		return nil
	}

	args := finalModel.settings.toArgs()

	switch finalModel.downloadType {
	case "single":
		if finalModel.docID == "" {
			return nil
		}
		docID, err := catalog.ParseDocID(finalModel.docID)
		if err != nil {
			return err
		}
		info := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s downloading %s\n", info("INFO:"), docID)
		output := filepath.Join(finalModel.settings.OutputFolder, docID+".pdf")
		return downloadOne(context.Background(), args, docID, output)
	case "batch":
		if finalModel.confirmation != "y" {
			return nil
		}
		if _, err := os.Stat(finalModel.booksDirectory); os.IsNotExist(err) {
			return fmt.Errorf("books directory %q not found", finalModel.booksDirectory)
		}
		args.Batch = finalModel.booksDirectory
		return downloadBatch(context.Background(), args)
	}
	return nil
}

func (s AppSettings) toArgs() *Args {
	return &Args{
		Output:      s.OutputFolder,
		PerPage:     s.PerPage,
		Strict:      s.Strict,
		Force:       s.Overwrite,
		Concurrency: s.Concurrency,
	}
}
