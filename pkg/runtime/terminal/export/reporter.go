package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

type TableConfig struct {
	SnapshotWidth int
	DecisionWidth int
	AgeWidth      int
	ReasonWidth   int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		SnapshotWidth: 60,
		DecisionWidth: 16,
		AgeWidth:      10,
		ReasonWidth:   40,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(report *domain.SweepReport, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(c.writer)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatTable, "":
		return c.table(report)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func (c *Reporter) table(report *domain.SweepReport) error {
	funcMap := template.FuncMap{
		"formatRow": func(snapshot string, decision any, age any, reason string) string {
			return fmt.Sprintf("| %-*s | %-*v | %*v | %-*s |",
				c.config.SnapshotWidth, snapshot,
				c.config.DecisionWidth, decision,
				c.config.AgeWidth, age,
				c.config.ReasonWidth, reason)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.SnapshotWidth+2),
				strings.Repeat("-", c.config.DecisionWidth+2),
				strings.Repeat("-", c.config.AgeWidth+2),
				strings.Repeat("-", c.config.ReasonWidth+2))
		},
		"age": func(days float64) string {
			return fmt.Sprintf("%.2f", days)
		},
	}

	tmpl := `
Snapshot sweep {{.RunID}}{{if .DryRun}} (dry run){{end}}
Region: {{.Region}}
Started: {{.StartedAt.Format "2006-01-02 15:04:05"}}  Finished: {{.FinishedAt.Format "2006-01-02 15:04:05"}}
Listed: {{.Listed}}  Matched: {{.Matched}}  Deleted: {{.Deleted}}  Retained: {{.Retained}}  Failed: {{.Failed}}
{{if .Outcomes}}
{{separator}}
{{formatRow "Snapshot" "Decision" "Age (d)" "Reason"}}
{{separator}}
{{range .Outcomes}}{{formatRow .Snapshot .Decision (age .AgeDays) .Reason}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("sweep").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
