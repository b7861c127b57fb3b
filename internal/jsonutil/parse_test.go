package jsonutil

import "testing"

type verdict struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

func TestParseJSONPlain(t *testing.T) {
	v, err := ParseJSON[verdict](`{"type":"activity","confidence":0.8}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type != "activity" || v.Confidence != 0.8 {
		t.Errorf("unexpected result: %+v", v)
	}
}

func TestParseJSONFenced(t *testing.T) {
	raw := "```json\n{\"type\":\"landscape\",\"confidence\":0.5}\n```"
	v, err := ParseJSON[verdict](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type != "landscape" {
		t.Errorf("expected landscape, got %s", v.Type)
	}
}

func TestParseJSONEmbeddedInProse(t *testing.T) {
	raw := "Here is my verdict:\n{\"type\":\"irrelevant\",\"confidence\":0.2}\nHope that helps!"
	v, err := ParseJSON[verdict](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Type != "irrelevant" || v.Confidence != 0.2 {
		t.Errorf("unexpected result: %+v", v)
	}
}

func TestParseJSONArray(t *testing.T) {
	raw := "```\n[{\"type\":\"a\",\"confidence\":0.1},{\"type\":\"b\",\"confidence\":0.9}]\n```"
	vs, err := ParseJSON[[]verdict](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vs) != 2 || vs[1].Type != "b" {
		t.Errorf("unexpected result: %+v", vs)
	}
}

func TestParseJSONNoContent(t *testing.T) {
	if _, err := ParseJSON[verdict]("the model refused to answer"); err == nil {
		t.Error("expected error for non-JSON response")
	}
}

func TestParseJSONMalformed(t *testing.T) {
	if _, err := ParseJSON[verdict](`{"type": activity}`); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestStripMarkdownFencesPassthrough(t *testing.T) {
	in := `{"a":1}`
	if out := StripMarkdownFences(in); out != in {
		t.Errorf("expected passthrough, got %q", out)
	}
}
