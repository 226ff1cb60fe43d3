package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/strahe/catalog-sentinel/models"
)

// ConsoleSink implements the Sink interface to output notifications to the console in a pretty table format
type ConsoleSink struct {
	// whether to use colored output
	colorEnabled bool
	// unified table style
	tableStyle table.Style
	// max width of the message column, longer lines wrap
	maxColumnWidth int
	out            io.Writer
}

// ConsoleSinkOption defines functional options for ConsoleSink
type ConsoleSinkOption func(*ConsoleSink)

// WithColorOutput enables or disables colored output
func WithColorOutput(enabled bool) ConsoleSinkOption {
	return func(s *ConsoleSink) {
		s.colorEnabled = enabled
	}
}

// WithMaxColumnWidth sets the maximum column width for wrapping
func WithMaxColumnWidth(width int) ConsoleSinkOption {
	return func(s *ConsoleSink) {
		if width > 0 {
			s.maxColumnWidth = width
		}
	}
}

// WithOutput sets where tables are written, stdout by default
func WithOutput(w io.Writer) ConsoleSinkOption {
	return func(s *ConsoleSink) {
		if w != nil {
			s.out = w
		}
	}
}

// NewConsoleSink creates a new console sink
func NewConsoleSink(options ...ConsoleSinkOption) *ConsoleSink {
	customStyle := table.Style{
		Name: "Catalog-Custom",
		Box: table.BoxStyle{
			BottomLeft:       "└",
			BottomRight:      "┘",
			BottomSeparator:  "┴",
			Left:             "│",
			LeftSeparator:    "├",
			MiddleHorizontal: "─",
			MiddleSeparator:  "┼",
			MiddleVertical:   "│",
			PaddingLeft:      " ",
			PaddingRight:     " ",
			Right:            "│",
			RightSeparator:   "┤",
			TopLeft:          "┌",
			TopRight:         "┐",
			TopSeparator:     "┬",
			UnfinishedRow:    "...",
		},
		Options: table.Options{
			DrawBorder:      true,
			SeparateColumns: true,
			SeparateFooter:  true,
			SeparateHeader:  true,
			SeparateRows:    false,
		},
		Title: table.TitleOptions{
			Align:  text.AlignCenter,
			Colors: text.Colors{text.FgHiWhite, text.Bold},
		},
		Color: table.ColorOptions{
			Header: text.Colors{text.FgHiWhite, text.Bold},
			Row:    text.Colors{},
			Footer: text.Colors{text.FgHiWhite, text.Bold},
		},
	}

	sink := &ConsoleSink{
		colorEnabled:   true,
		tableStyle:     customStyle,
		maxColumnWidth: 100,
		out:            os.Stdout,
	}

	for _, option := range options {
		option(sink)
	}

	return sink
}

// Init implements the Sink interface. It accepts "color" and "max_column_width".
func (s *ConsoleSink) Init(ctx context.Context, config map[string]any) error {
	if enabled, ok := config["color"].(bool); ok {
		s.colorEnabled = enabled
	}
	switch width := config["max_column_width"].(type) {
	case int:
		WithMaxColumnWidth(width)(s)
	case int64:
		WithMaxColumnWidth(int(width))(s)
	case float64:
		WithMaxColumnWidth(int(width))(s)
	}
	return nil
}

// Write outputs notifications to the console
func (s *ConsoleSink) Write(ctx context.Context, notifications []*models.Notification) error {
	for _, n := range notifications {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.writeNotificationTable(n)
	}
	return nil
}

func (s *ConsoleSink) eventColor(eventType models.EventType) func(a ...any) string {
	if !s.colorEnabled {
		return fmt.Sprint
	}
	switch eventType {
	case models.EntityCreated:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	case models.EntityUpdated:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case models.EntitySoftDeleted, models.EntityDeleted:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	default:
		return fmt.Sprint
	}
}

// writeNotificationTable outputs a notification as a nicely formatted table
func (s *ConsoleSink) writeNotificationTable(n *models.Notification) {
	eventTable := table.NewWriter()
	eventTable.SetOutputMirror(s.out)

	summaryRows := []table.Row{
		{"Event ID", n.EventID},
		{"Event", s.eventColor(n.EventType)(string(n.EventType))},
		{"Entity", fmt.Sprintf("%s %s", n.Entity.Type, n.Entity.FullyQualifiedName)},
	}
	if n.Link.FieldName != "" {
		summaryRows = append(summaryRows, table.Row{"Field", fieldPath(n.Link)})
	}
	if n.UserName != "" {
		summaryRows = append(summaryRows, table.Row{"User", n.UserName})
	}
	if !n.Timestamp.IsZero() {
		summaryRows = append(summaryRows, table.Row{"Timestamp", n.Timestamp.Format(time.RFC3339)})
	}

	summaryTable := table.NewWriter()
	for _, row := range summaryRows {
		summaryTable.AppendRow(row)
	}
	summaryTable.SetStyle(s.tableStyle)
	summaryTable.Style().Options.DrawBorder = false
	summaryTable.Style().Options.SeparateRows = false

	messageTable := table.NewWriter()
	messageTable.AppendRow(table.Row{RenderMessage(n.Message, s.colorEnabled)})
	messageTable.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: s.maxColumnWidth},
	})
	messageTable.SetStyle(s.tableStyle)

	eventTable.AppendRow(table.Row{summaryTable.Render()})
	eventTable.AppendRow(table.Row{""})
	eventTable.AppendRow(table.Row{text.Bold.Sprint("Message")})
	eventTable.AppendRow(table.Row{messageTable.Render()})

	eventTable.SetStyle(s.tableStyle)
	eventTable.SetTitle(fmt.Sprintf("%s %s", strings.ToUpper(string(n.EventType)), n.Link))

	fmt.Fprintln(s.out)
	eventTable.Render()
}

// fieldPath joins the field segments of a link with dots.
func fieldPath(link models.EntityLink) string {
	parts := []string{link.FieldName}
	if link.ArrayFieldName != "" {
		parts = append(parts, link.ArrayFieldName)
	}
	if link.ArrayFieldValue != "" {
		parts = append(parts, link.ArrayFieldValue)
	}
	return strings.Join(parts, ".")
}

// Flush implements the Sink interface, no buffering for console output
func (s *ConsoleSink) Flush(ctx context.Context) error {
	return nil
}

// Close implements the Sink interface
func (s *ConsoleSink) Close() error {
	return nil
}

// Type returns the type of this sink
func (s *ConsoleSink) Type() string {
	return "console"
}

var _ Sink = (*ConsoleSink)(nil)
