package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/zx06/xcred/internal/errors"
)

type tableFormatterData struct{}

func (tableFormatterData) ToTableData() ([]string, []map[string]any, bool) {
	return []string{"id"}, []map[string]any{{"id": 1}}, true
}

type notTabular struct{}

func (notTabular) ToTableData() ([]string, []map[string]any, bool) { return nil, nil, false }

func TestWriteOK_JSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatJSON, map[string]any{"k": "v"}); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.OK || env.SchemaVersion != SchemaVersion {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteError_JSONEnvelope(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeCfgInvalid, "bad", map[string]any{"x": 1})
	if err := w.WriteError(FormatJSON, xe); err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.OK || env.Error == nil || env.Error.Code != errors.CodeCfgInvalid {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestWriteError_CauseNotLeaked(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	cause := stderrors.New("underlying detail")
	xe := errors.Wrap(errors.CodeStoreFailed, "store failed", nil, cause)
	if err := w.WriteError(FormatJSON, xe); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "underlying detail") {
		t.Fatalf("cause must not appear in envelope: %s", out.String())
	}
	if !strings.Contains(out.String(), "store failed") {
		t.Fatalf("message missing: %s", out.String())
	}
}

func TestWriteOK_YAMLFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatYAML, KeyInfo{Name: "k", Fingerprint: "abcd"}); err != nil {
		t.Fatal(err)
	}
	var env struct {
		OK   bool    `yaml:"ok"`
		Data KeyInfo `yaml:"data"`
	}
	if err := yaml.Unmarshal(out.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if !env.OK || env.Data.Fingerprint != "abcd" {
		t.Fatalf("unexpected: %+v", env)
	}
	if !strings.HasSuffix(out.String(), "\n") {
		t.Fatal("yaml output must end with newline")
	}
}

func TestWriteOK_TableFormat_KeyList(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, KeyList{Service: "svc", Keys: []string{"alpha", "beta"}}); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.Contains(result, "key") {
		t.Errorf("table should contain column header, got: %s", result)
	}
	if !strings.Contains(result, "alpha") || !strings.Contains(result, "beta") {
		t.Errorf("table should contain rows, got: %s", result)
	}
	if !strings.Contains(result, "(2 rows)") {
		t.Errorf("table should contain row count, got: %s", result)
	}
	if strings.Contains(result, "schema_version") {
		t.Errorf("table format should not contain schema_version, got: %s", result)
	}
}

func TestWriteOK_TableFormat_Map(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, map[string]any{"b": 2, "a": nil}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %q", out.String())
	}
	if !strings.HasPrefix(lines[1], "a") || !strings.Contains(lines[1], "<null>") {
		t.Errorf("rows should be sorted and null rendered, got %q", lines[1])
	}
}

func TestWriteOK_TableFormat_Fallback(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, notTabular{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "{}") {
		t.Fatalf("expected json fallback, got %q", out.String())
	}

	out.Reset()
	if err := w.WriteOK(FormatTable, []int{1, 2}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1") {
		t.Fatalf("expected json fallback, got %q", out.String())
	}
}

func TestWriteOK_TableFormat_TableFormatter(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, tableFormatterData{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "id") || !strings.Contains(out.String(), "(1 rows)") {
		t.Fatalf("expected table output, got %s", out.String())
	}
}

func TestWriteOK_TableFormat_NilData(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatTable, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ok") {
		t.Fatalf("got %q", out.String())
	}
}

func TestWriteOK_CSVFormat_SecretStatus(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatCSV, SecretStatus{Service: "svc", Key: "k", Exists: true}); err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected header + 1 row, got %v", recs)
	}
	if strings.Join(recs[0], ",") != "service,key,exists,changed" {
		t.Errorf("header=%v", recs[0])
	}
	if strings.Join(recs[1], ",") != "svc,k,true,false" {
		t.Errorf("row=%v", recs[1])
	}
}

func TestWriteOK_CSVFormat_NonTabular(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteOK(FormatCSV, []string{"x"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ok,true") || !strings.Contains(out.String(), "data") {
		t.Fatalf("got %q", out.String())
	}
}

func TestWriteError_TableFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeSecretNotFound, "secret not found", nil)
	if err := w.WriteError(FormatTable, xe); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.Contains(result, "XCRED_SECRET_NOT_FOUND") {
		t.Errorf("table should contain error code, got: %s", result)
	}
	if !strings.Contains(result, "secret not found") {
		t.Errorf("table should contain error message, got: %s", result)
	}
}

func TestWriteError_CSVFormat(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	xe := errors.New(errors.CodeCfgInvalid, "bad config", nil)
	if err := w.WriteError(FormatCSV, xe); err != nil {
		t.Fatal(err)
	}
	result := out.String()
	if !strings.Contains(result, "error.code") {
		t.Errorf("csv should contain error, got: %s", result)
	}
	if !strings.Contains(result, "bad config") {
		t.Errorf("csv should contain message, got: %s", result)
	}
}

func TestWriteRaw(t *testing.T) {
	var out bytes.Buffer
	w := New(&out, &bytes.Buffer{})
	if err := w.WriteRaw("s3cret"); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteRaw("line\n"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "s3cret\nline\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestIsValid(t *testing.T) {
	for _, f := range []Format{FormatAuto, FormatJSON, FormatYAML, FormatTable, FormatCSV} {
		if !IsValid(f) {
			t.Errorf("%s should be valid", f)
		}
	}
	if IsValid("xml") {
		t.Error("xml should be invalid")
	}
}

func TestWriteOK_InvalidFormat(t *testing.T) {
	w := New(&bytes.Buffer{}, &bytes.Buffer{})
	err := w.WriteOK(Format("xml"), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, errors.CodeCfgInvalid) {
		t.Fatalf("err=%v", err)
	}
}

func TestFormatCell(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "<null>"},
		{"s", "s"},
		{[]byte("b"), "b"},
		{true, "true"},
		{42, "42"},
		{[]string{"a"}, `["a"]`},
	}
	for _, c := range cases {
		if got := formatCell(c.in); got != c.want {
			t.Errorf("formatCell(%v)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"", FormatAuto, true},
		{"json", FormatJSON, true},
		{" YAML ", FormatYAML, true},
		{"Table", FormatTable, true},
		{"xml", Format("xml"), false},
	}
	for _, tc := range cases {
		got, ok := ParseFormat(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseFormat(%q)=(%q,%v) want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	for _, f := range Formats() {
		if !IsValid(f) {
			t.Errorf("Formats() lists invalid %q", f)
		}
	}
}

func TestErrorEnvelope_Nil(t *testing.T) {
	env := ErrorEnvelope(nil)
	if env.OK || env.Error == nil || env.Error.Code != errors.CodeInternal {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}
