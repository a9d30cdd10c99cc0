package cli

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dopingplot/pkg/chart"
	"github.com/matzehuels/dopingplot/pkg/chart/mark"
	"github.com/matzehuels/dopingplot/pkg/chart/surface"
	"github.com/matzehuels/dopingplot/pkg/chart/tooltip"
	"github.com/matzehuels/dopingplot/pkg/dataset"
	"github.com/matzehuels/dopingplot/pkg/pipeline"
)

// Explorer styles
var (
	exploreAxisStyle   = lipgloss.NewStyle().Foreground(colorDim)
	exploreCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	exploreTipStyle    = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorGray).
				Padding(0, 1).
				Width(42)
)

const (
	glyphMark   = "●"
	glyphCursor = "+"
	yLabelWidth = 6
)

// exploreCommand creates the interactive terminal chart.
func (c *CLI) exploreCommand() *cobra.Command {
	var src string

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse the chart in the terminal",
		Long: `Draw the scatter plot as a terminal grid. Move the cursor over a mark to
show its tooltip, as hovering does in the browser.

Keys: arrows/hjkl move, n/p jump to the next/previous mark, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if src != "" {
				cfg.Source.URL = src
			}
			chartCfg, err := cfg.ChartConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			spinner := newSpinnerWithContext(ctx, "Fetching "+cfg.Source.URL+"...")
			spinner.Start()
			records, _, err := runner.Fetch(ctx, pipeline.Options{Source: cfg.Source.URL, Logger: c.Logger})
			if err != nil {
				spinner.Stop()
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Loaded %d records", len(records)))

			model, err := newExploreModel(records, chartCfg, 72, 20)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&src, "source", "s", "", "dataset URL or file path")
	return cmd
}

// =============================================================================
// exploreModel - terminal scatter plot with hover tooltip
// =============================================================================

// exploreModel maps terminal cells onto the chart's plot area. The cursor
// plays the pointer: entering, moving over and leaving marks drives the
// same tooltip controller the browser script realizes.
type exploreModel struct {
	res   chart.Result
	cfg   chart.Config
	tip   *tooltip.State
	order []int // mark indices sorted by x

	cols, rows int
	cx, cy     int
	hovered    int // index into res.Marks, -1 when none
}

func newExploreModel(records []dataset.Record, cfg chart.Config, cols, rows int) (exploreModel, error) {
	tip := tooltip.NewState()
	s := surface.NewSurface(cfg.Frame.Width, cfg.Frame.Height)
	res, err := chart.Draw(s, records, cfg, tip)
	if err != nil {
		return exploreModel{}, err
	}

	order := make([]int, len(res.Marks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return res.Marks[order[a]].X < res.Marks[order[b]].X })

	m := exploreModel{
		res:     res,
		cfg:     cfg,
		tip:     tip,
		order:   order,
		cols:    cols,
		rows:    rows,
		cx:      cols / 2,
		cy:      rows / 2,
		hovered: -1,
	}
	m.hover()
	return m, nil
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.cy = max(m.cy-1, 0)
		case "down", "j":
			m.cy = min(m.cy+1, m.rows-1)
		case "left", "h":
			m.cx = max(m.cx-1, 0)
		case "right", "l":
			m.cx = min(m.cx+1, m.cols-1)
		case "n", "tab":
			m.jump(1)
		case "p", "shift+tab":
			m.jump(-1)
		}
		m.hover()
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width-yLabelWidth-48, 20)
		m.rows = max(msg.Height-8, 8)
		m.cx = min(m.cx, m.cols-1)
		m.cy = min(m.cy, m.rows-1)
		m.hover()
	}
	return m, nil
}

// jump moves the cursor to the next mark in x order after the current one.
func (m *exploreModel) jump(dir int) {
	if len(m.order) == 0 {
		return
	}
	pos := 0
	if m.hovered >= 0 {
		for i, idx := range m.order {
			if idx == m.hovered {
				pos = (i + dir + len(m.order)) % len(m.order)
				break
			}
		}
	} else if dir < 0 {
		pos = len(m.order) - 1
	}
	mk := m.res.Marks[m.order[pos]]
	m.cx, m.cy = m.cell(mk.X, mk.Y)
}

// hover updates the tooltip for the mark under the cursor.
func (m *exploreModel) hover() {
	p := m.point(m.cx, m.cy)
	cw, ch := m.cellSize()
	found, ok := mark.At(m.res.Marks, p.X, p.Y, math.Max(cw, ch)*0.75)

	switch {
	case !ok && m.hovered >= 0:
		m.res.Marks[m.hovered].Leave()
		m.hovered = -1
	case ok && found.Index == m.markIndex(m.hovered):
		found.Over(p)
	case ok:
		if m.hovered >= 0 {
			m.res.Marks[m.hovered].Leave()
		}
		found.Enter(p)
		m.hovered = m.position(found.Index)
	}
}

// markIndex returns the record index of the mark at pos, or -1.
func (m exploreModel) markIndex(pos int) int {
	if pos < 0 {
		return -1
	}
	return m.res.Marks[pos].Index
}

// position returns the slice position of the mark for record index.
func (m exploreModel) position(index int) int {
	for i, mk := range m.res.Marks {
		if mk.Index == index {
			return i
		}
	}
	return -1
}

func (m exploreModel) cellSize() (float64, float64) {
	f := m.cfg.Frame
	return (f.PlotRight() - f.PlotLeft()) / float64(m.cols), (f.PlotBottom() - f.PlotTop()) / float64(m.rows)
}

// point returns the surface coordinates at the center of a cell.
func (m exploreModel) point(col, row int) tooltip.Point {
	cw, ch := m.cellSize()
	f := m.cfg.Frame
	return tooltip.Point{X: f.PlotLeft() + (float64(col)+0.5)*cw, Y: f.PlotTop() + (float64(row)+0.5)*ch}
}

// cell returns the cell containing surface coordinates (x, y).
func (m exploreModel) cell(x, y float64) (int, int) {
	cw, ch := m.cellSize()
	f := m.cfg.Frame
	col := int((x - f.PlotLeft()) / cw)
	row := int((y - f.PlotTop()) / ch)
	return min(max(col, 0), m.cols-1), min(max(row, 0), m.rows-1)
}

func (m exploreModel) View() string {
	grid := make([][]string, m.rows)
	for r := range grid {
		grid[r] = make([]string, m.cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	for _, mk := range m.res.Marks {
		c, r := m.cell(mk.X, mk.Y)
		color := lipgloss.Color(m.cfg.Style.Fill(mk.Category))
		grid[r][c] = lipgloss.NewStyle().Foreground(color).Render(glyphMark)
	}
	if grid[m.cy][m.cx] == " " {
		grid[m.cy][m.cx] = exploreCursorStyle.Render(glyphCursor)
	} else {
		grid[m.cy][m.cx] = exploreCursorStyle.Reverse(true).Render(glyphMark)
	}

	yLabels := make(map[int]string)
	for _, t := range m.res.YAxis.Ticks {
		_, r := m.cell(m.cfg.Frame.PlotLeft(), t.Pos)
		yLabels[r] = t.Label
	}

	var plot strings.Builder
	for r, row := range grid {
		label := fmt.Sprintf("%*s", yLabelWidth-1, yLabels[r])
		plot.WriteString(exploreAxisStyle.Render(label + "│"))
		plot.WriteString(strings.Join(row, ""))
		plot.WriteString("\n")
	}
	plot.WriteString(exploreAxisStyle.Render(strings.Repeat(" ", yLabelWidth-1) + "└" + strings.Repeat("─", m.cols)))
	plot.WriteString("\n")
	plot.WriteString(exploreAxisStyle.Render(strings.Repeat(" ", yLabelWidth) + m.xLabels()))

	side := lipgloss.JoinVertical(lipgloss.Left, m.tooltipView(), "", m.legendView())

	var b strings.Builder
	b.WriteString(StyleTitle.Render(titleOr(m.cfg.Title)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("arrows/hjkl move  n/p next/prev mark  q quit"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, plot.String(), "  ", side))
	return b.String()
}

// xLabels places year labels under their cells without overlapping.
func (m exploreModel) xLabels() string {
	line := []rune(strings.Repeat(" ", m.cols))
	next := 0
	for _, t := range m.res.XAxis.Ticks {
		c, _ := m.cell(t.Pos, m.cfg.Frame.PlotTop())
		if c < next || c+len(t.Label) > m.cols {
			continue
		}
		copy(line[c:], []rune(t.Label))
		next = c + len(t.Label) + 1
	}
	return string(line)
}

func (m exploreModel) tooltipView() string {
	snap := m.tip.Snapshot()
	if !snap.Visible {
		return exploreTipStyle.Foreground(colorDim).Render("Move onto a mark to see its details")
	}
	return exploreTipStyle.Render(snap.Text)
}

func (m exploreModel) legendView() string {
	stats := dataset.Summarize(m.records())
	rows := [][]string{
		{lipgloss.NewStyle().Foreground(lipgloss.Color(m.cfg.Style.DopingColor)).Render(glyphMark), "Doping allegations", fmt.Sprint(stats.Doping)},
		{lipgloss.NewStyle().Foreground(lipgloss.Color(m.cfg.Style.CleanColor)).Render(glyphMark), "No allegations", fmt.Sprint(stats.Clean)},
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Riders", "Count").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

func (m exploreModel) records() []dataset.Record {
	out := make([]dataset.Record, len(m.res.Marks))
	for i, mk := range m.res.Marks {
		out[i] = mk.Record
	}
	return out
}

func titleOr(title string) string {
	if title == "" {
		return chart.DefaultConfig().Title
	}
	return title
}
