package catalog

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseAcceptsBareAndEnvelope(t *testing.T) {
	cases := []struct {
		name string
		typ  ParamType
		raw  string
		want ParamValue
	}{
		{"number", ParamNumber, `45`, Number(45)},
		{"numeric string", ParamNumber, `"45"`, Number(45)},
		{"decimal", ParamNumber, `2.2`, Number(2.2)},
		{"envelope", ParamNumber, `{"type":"NUMBER","value":240}`, Number(240)},
		{"text", ParamText, `"shaggy"`, Text("shaggy")},
		{"text from number", ParamText, `15`, Text("15")},
		{"bool", ParamBoolean, `true`, Bool(true)},
		{"bool string", ParamBoolean, `"false"`, Bool(false)},
		{"select", ParamSelect, `" coil "`, Select("coil")},
		{"null", ParamNumber, `null`, ParamValue{}},
		{"empty", ParamText, ``, ParamValue{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.typ, json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("want=%v got=%v", tc.want, got)
			}
		})
	}
}

func TestParseRejectsMismatches(t *testing.T) {
	cases := []struct {
		typ ParamType
		raw string
	}{
		{ParamNumber, `"warm"`},
		{ParamNumber, `true`},
		{ParamBoolean, `"sometimes"`},
		{ParamSelect, `""`},
		{ParamNumber, `{"type":"TEXT","value":"x"}`},
		{ParamType("COLOR"), `"red"`},
	}
	for _, tc := range cases {
		if _, err := Parse(tc.typ, json.RawMessage(tc.raw)); !errors.Is(err, ErrInvalidParamValue) {
			t.Fatalf("Parse(%s, %s): want ErrInvalidParamValue got=%v", tc.typ, tc.raw, err)
		}
	}
}

func TestParseWithOptionsChecksSelectMembership(t *testing.T) {
	shapes := DecodeOptions([]byte(`["Boule","Batard","Pan"]`))
	if len(shapes) != 3 {
		t.Fatalf("DecodeOptions: want=3 got=%v", shapes)
	}
	cases := []struct {
		name    string
		typ     ParamType
		options []string
		raw     string
		wantErr bool
	}{
		{"member", ParamSelect, shapes, `"Batard"`, false},
		{"member in envelope", ParamSelect, shapes, `{"type":"SELECT","value":" Pan "}`, false},
		{"not a member", ParamSelect, shapes, `"Pyramid"`, true},
		{"case sensitive", ParamSelect, shapes, `"boule"`, true},
		{"null clears", ParamSelect, shapes, `null`, false},
		{"no options", ParamSelect, nil, `"Pyramid"`, false},
		{"non-select ignores options", ParamText, shapes, `"Pyramid"`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseWithOptions(tc.typ, tc.options, json.RawMessage(tc.raw))
			if tc.wantErr && !errors.Is(err, ErrInvalidParamValue) {
				t.Fatalf("want ErrInvalidParamValue got=%v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("ParseWithOptions: %v", err)
			}
		})
	}
	if got := DecodeOptions([]byte(`{"not":"a list"}`)); got != nil {
		t.Fatalf("malformed options: want=nil got=%v", got)
	}
}

func TestParamValueJSONEnvelope(t *testing.T) {
	b, err := json.Marshal(Number(45))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"type":"NUMBER","value":45}` {
		t.Fatalf("envelope: got=%s", b)
	}
	b, _ = json.Marshal(ParamValue{})
	if string(b) != "null" {
		t.Fatalf("null: got=%s", b)
	}

	var holder struct {
		V ParamValue `json:"v"`
	}
	if err := json.Unmarshal([]byte(`{"v":{"type":"SELECT","value":"coil"}}`), &holder); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !holder.V.Equal(Select("coil")) {
		t.Fatalf("unmarshal: got=%v", holder.V)
	}
}

func TestParamValueScanAndValue(t *testing.T) {
	dv, err := Bool(true).Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var got ParamValue
	if err := got.Scan([]byte(dv.(string))); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !got.Equal(Bool(true)) {
		t.Fatalf("scan: got=%v", got)
	}
	if err := got.Scan(nil); err != nil || !got.IsNull() {
		t.Fatalf("scan nil: err=%v null=%v", err, got.IsNull())
	}
	if dv, _ := (ParamValue{}).Value(); dv != nil {
		t.Fatalf("null Value: want=nil got=%v", dv)
	}
}

func TestParamValueString(t *testing.T) {
	if got := Number(2.5).String(); got != "2.5" {
		t.Fatalf("number: want=2.5 got=%s", got)
	}
	if got := Number(240).String(); got != "240" {
		t.Fatalf("integer: want=240 got=%s", got)
	}
}

func TestParseParamTypeAliases(t *testing.T) {
	for raw, want := range map[string]ParamType{"integer": ParamNumber, "text": ParamText, "bool": ParamBoolean, "SELECT": ParamSelect} {
		got, err := ParseParamType(raw)
		if err != nil || got != want {
			t.Fatalf("ParseParamType(%q): want=%s got=%s err=%v", raw, want, got, err)
		}
	}
	if _, err := ParseParamType("color"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
