package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/memviz/pkg/node"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// CheckpointListModel - Interactive checkpoint selection
// =============================================================================

// CheckpointListModel is the bubbletea model for picking one checkpoint of a
// trace.
type CheckpointListModel struct {
	Checkpoints []node.Snapshot
	Cursor      int
	Selected    int // -1 until a checkpoint is chosen
	Height      int
	Offset      int
}

// NewCheckpointListModel creates a picker over the checkpoints of t.
func NewCheckpointListModel(t node.Trace) CheckpointListModel {
	return CheckpointListModel{
		Checkpoints: t.Checkpoints,
		Selected:    -1,
		Height:      15,
	}
}

func (m CheckpointListModel) Init() tea.Cmd {
	return nil
}

func (m CheckpointListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Checkpoints)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = len(m.Checkpoints) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		case "enter":
			if len(m.Checkpoints) > 0 {
				m.Selected = m.Cursor
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m CheckpointListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Checkpoint"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Checkpoints))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.Checkpoints[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		label := s.Label
		if label == "" {
			label = "-"
		}
		rows = append(rows, []string{
			cursor,
			fmt.Sprintf("%d", i),
			label,
			fmt.Sprintf("%d", len(s.Globals)),
			fmt.Sprintf("%d", len(s.Locals)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Label", "Globals", "Locals").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Checkpoints))))

	return b.String()
}
