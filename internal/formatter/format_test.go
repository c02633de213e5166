package formatter

import (
	"bytes"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]string{"": "table", "TABLE": "table", "json": "json", " yaml ": "yaml"}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestEncode(t *testing.T) {
	v := struct {
		Mode  string   `json:"mode" yaml:"mode"`
		Files []string `json:"files" yaml:"files"`
	}{"full", []string{"layouts/a.html"}}

	var js bytes.Buffer
	if err := Encode(&js, FormatJSON, v); err != nil {
		t.Fatalf("Encode json: %v", err)
	}
	want := "{\n  \"mode\": \"full\",\n  \"files\": [\n    \"layouts/a.html\"\n  ]\n}\n"
	if js.String() != want {
		t.Errorf("json = %q, want %q", js.String(), want)
	}

	var ym bytes.Buffer
	if err := Encode(&ym, FormatYAML, v); err != nil {
		t.Fatalf("Encode yaml: %v", err)
	}
	if ym.String() != "mode: full\nfiles:\n  - layouts/a.html\n" {
		t.Errorf("yaml = %q", ym.String())
	}

	if err := Encode(&bytes.Buffer{}, FormatTable, v); err == nil {
		t.Error("Encode(table) should fail")
	}
}
