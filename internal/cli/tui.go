package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lipglosstable "github.com/charmbracelet/lipgloss/table"

	"github.com/causetree/causetree/pkg/table"
)

// Browser styles
var (
	browserDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	browserHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// YearBrowserModel - Interactive year-by-year run browser
// =============================================================================

// YearBrowserModel is the bubbletea model for browsing a stored run.
// It shows one year at a time with its leading causes of death.
type YearBrowserModel struct {
	RunID  string
	Years  []int
	Cursor int
	Limit  int

	rows []table.AggregatedRow
}

// NewYearBrowserModel creates a year browser over a run's aggregated rows.
func NewYearBrowserModel(runID string, rows []table.AggregatedRow, limit int) YearBrowserModel {
	return YearBrowserModel{
		RunID: runID,
		Years: table.Years(rows),
		Limit: limit,
		rows:  rows,
	}
}

func (m YearBrowserModel) Init() tea.Cmd {
	return nil
}

func (m YearBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "right", "l":
			if m.Cursor < len(m.Years)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = len(m.Years) - 1
		}
	}
	return m, nil
}

func (m YearBrowserModel) View() string {
	if len(m.Years) == 0 {
		return browserDimStyle.Render("run has no stored years")
	}

	year := m.Years[m.Cursor]
	causes := topCauses(m.rows, year, m.Limit)

	var b strings.Builder
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Run %s", m.RunID)))
	b.WriteString("\n")
	b.WriteString(browserDimStyle.Render("←/→ change year  g/G first/last  q quit"))
	b.WriteString("\n\n")

	var total int
	tableRows := [][]string{}
	for _, cause := range causes {
		tableRows = append(tableRows, []string{
			fmt.Sprintf("%d", cause.Count),
			cause.Category,
			cause.Description,
		})
	}
	for _, r := range m.rows {
		if r.Year == year {
			total += r.Count
		}
	}

	t := lipglosstable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Deaths", "Category", "Cause").
		Rows(tableRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return browserHeaderStyle
			}
			if col == 1 {
				return StyleHighlight
			}
			return StyleValue
		})

	b.WriteString(StyleHighlight.Render(fmt.Sprintf("%d", year)))
	b.WriteString(browserDimStyle.Render(fmt.Sprintf("  %d deaths recorded", total)))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(browserDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Years))))

	return b.String()
}
