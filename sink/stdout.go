package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/strahe/catalog-sentinel/models"
	"github.com/strahe/catalog-sentinel/pkg/log"
)

// StdoutSink prints notifications as JSON lines, or as plain text blocks when pretty
// printing is on.
type StdoutSink struct {
	prettyPrint bool
	out         io.Writer
}

func NewStdoutSink() *StdoutSink {
	return &StdoutSink{
		prettyPrint: true,
		out:         os.Stdout,
	}
}

// NewStdoutSinkWriter is NewStdoutSink writing to w.
func NewStdoutSinkWriter(w io.Writer, prettyPrint bool) *StdoutSink {
	return &StdoutSink{
		prettyPrint: prettyPrint,
		out:         w,
	}
}

func (s *StdoutSink) Init(ctx context.Context, config map[string]any) error {
	log.Debugf("StdoutSink Init")

	if prettyPrint, ok := config["pretty_print"].(bool); ok {
		s.prettyPrint = prettyPrint
	}

	return nil
}

func (s *StdoutSink) Close() error {
	log.Debugf("StdoutSink Close")
	return nil
}

func (s *StdoutSink) Flush(ctx context.Context) error {
	log.Debugf("StdoutSink Flush")
	return nil
}

func (s *StdoutSink) Type() string {
	return "stdout"
}

func (s *StdoutSink) Write(ctx context.Context, notifications []*models.Notification) error {
	log.Debugf("StdoutSink Write %d notifications", len(notifications))

	if len(notifications) == 0 {
		return nil
	}

	if s.prettyPrint {
		_, err := fmt.Fprint(s.out, s.buildPrettyOutput(notifications))
		return err
	}

	// nothing is written unless every notification encodes
	outputs := make([]string, 0, len(notifications))
	for _, n := range notifications {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to marshal notification %s: %w", n.EventID, err)
		}
		outputs = append(outputs, string(data))
	}
	_, err := fmt.Fprintln(s.out, strings.Join(outputs, "\n"))
	return err
}

func (s *StdoutSink) buildPrettyOutput(notifications []*models.Notification) string {
	var sb strings.Builder

	for i, n := range notifications {
		if i > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString("----------------------------------------\n")
		sb.WriteString(fmt.Sprintf("Event ID: %s\n", n.EventID))
		sb.WriteString(fmt.Sprintf("Event: %s\n", n.EventType))
		sb.WriteString(fmt.Sprintf("Entity: %s %s\n", n.Entity.Type, n.Entity.FullyQualifiedName))
		sb.WriteString(fmt.Sprintf("Link: %s\n", n.Link))
		if n.UserName != "" {
			sb.WriteString(fmt.Sprintf("User: %s\n", n.UserName))
		}
		if !n.Timestamp.IsZero() {
			sb.WriteString(fmt.Sprintf("Timestamp: %s\n", n.Timestamp.Format(time.RFC3339)))
		}
		sb.WriteString("Message:\n")
		sb.WriteString(RenderMessage(n.Message, false))
		sb.WriteString("\n")
		sb.WriteString("----------------------------------------\n")
	}

	return sb.String()
}

var _ Sink = (*StdoutSink)(nil)
