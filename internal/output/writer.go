package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/zx06/xcred/internal/errors"
)

// TableFormatter 由可以按行列展示的数据实现（table/csv 输出使用）。
// ok=false 时回退到通用渲染。
type TableFormatter interface {
	ToTableData() (columns []string, rows []map[string]any, ok bool)
}

type Writer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, err io.Writer) Writer {
	return Writer{Out: out, Err: err}
}

func (w Writer) WriteOK(format Format, data any) error {
	return w.write(format, OKEnvelope(data))
}

func (w Writer) WriteError(format Format, xe *errors.XError) error {
	return w.write(format, ErrorEnvelope(xe))
}

// WriteRaw 直接写出值（不带信封），用于 `secret get --raw` 等管道场景。
func (w Writer) WriteRaw(value string) error {
	if _, err := io.WriteString(w.Out, value); err != nil {
		return err
	}
	if !strings.HasSuffix(value, "\n") {
		_, err := io.WriteString(w.Out, "\n")
		return err
	}
	return nil
}

func (w Writer) write(format Format, env Envelope) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w.Out)
		enc.SetEscapeHTML(false)
		return enc.Encode(env)
	case FormatYAML:
		b, err := yaml.Marshal(env)
		if err != nil {
			return err
		}
		if _, err := w.Out.Write(b); err != nil {
			return err
		}
		if len(b) == 0 || b[len(b)-1] != '\n' {
			_, _ = w.Out.Write([]byte("\n"))
		}
		return nil
	case FormatTable:
		return writeTable(w.Out, env)
	case FormatCSV:
		return writeCSV(w.Out, env)
	default:
		return errors.New(errors.CodeCfgInvalid, "invalid output format", map[string]any{"format": string(format)})
	}
}

// tabular 把 data 转成列与行；无法转换时 ok=false。
func tabular(data any) ([]string, []map[string]any, bool) {
	switch v := data.(type) {
	case TableFormatter:
		return v.ToTableData()
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([]map[string]any, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, map[string]any{"field": k, "value": v[k]})
		}
		return []string{"field", "value"}, rows, true
	}
	return nil, nil, false
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "<null>"
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case bool, int, int64, float64:
		return fmt.Sprint(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func writeTable(out io.Writer, env Envelope) error {
	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	if !env.OK {
		_, _ = fmt.Fprintf(tw, "ok\t%v\n", false)
		if env.Error != nil {
			_, _ = fmt.Fprintf(tw, "error.code\t%s\n", env.Error.Code)
			_, _ = fmt.Fprintf(tw, "error.message\t%s\n", env.Error.Message)
		}
		return tw.Flush()
	}
	if env.Data == nil {
		_, _ = fmt.Fprintf(tw, "ok\t%v\n", true)
		return tw.Flush()
	}

	cols, rows, ok := tabular(env.Data)
	if !ok {
		b, _ := json.MarshalIndent(env.Data, "", "  ")
		_, _ = fmt.Fprintf(tw, "%s\n", b)
		return tw.Flush()
	}
	_, _ = fmt.Fprintln(tw, strings.Join(cols, "\t"))
	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatCell(row[c])
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if _, isFormatter := env.Data.(TableFormatter); isFormatter {
		_, _ = fmt.Fprintf(tw, "\n(%d rows)\n", len(rows))
	}
	return tw.Flush()
}

func writeCSV(out io.Writer, env Envelope) error {
	cw := csv.NewWriter(out)
	defer cw.Flush()
	if !env.OK {
		_ = cw.Write([]string{"ok", "false"})
		if env.Error != nil {
			_ = cw.Write([]string{"error.code", string(env.Error.Code)})
			_ = cw.Write([]string{"error.message", env.Error.Message})
		}
		cw.Flush()
		return cw.Error()
	}
	cols, rows, ok := tabular(env.Data)
	if !ok {
		// 结构化场景建议用 json/yaml
		_ = cw.Write([]string{"ok", "true"})
		if env.Data != nil {
			b, _ := json.Marshal(env.Data)
			_ = cw.Write([]string{"data", string(b)})
		}
		cw.Flush()
		return cw.Error()
	}
	_ = cw.Write(cols)
	for _, row := range rows {
		rec := make([]string, len(cols))
		for i, c := range cols {
			if row[c] != nil {
				rec[i] = formatCell(row[c])
			}
		}
		_ = cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}
