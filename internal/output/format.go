package output

import "strings"

type Format string

const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

// Formats lists the accepted --format values.
func Formats() []Format {
	return []Format{FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV}
}

func IsValid(f Format) bool {
	switch f {
	case FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV:
		return true
	default:
		return false
	}
}

// ParseFormat 忽略大小写与首尾空白；空串视为 auto。
func ParseFormat(s string) (Format, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatAuto, true
	}
	f := Format(s)
	return f, IsValid(f)
}
