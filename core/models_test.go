package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "test content"},
		{name: "empty content", content: ""},
		{name: "long content", content: strings.Repeat("long content ", 64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent([]byte(tt.content))
			id2 := IDFromContent([]byte(tt.content))

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
			if len(id1.String()) != 16 {
				t.Errorf("ID.String() = %q, want 16 hex digits", id1.String())
			}
		})
	}

	if IDFromContent([]byte("a")) == IDFromContent([]byte("b")) {
		t.Error("IDFromContent() produced the same ID for different content")
	}
}

func TestBatchItemResultExclusive(t *testing.T) {
	ok := Succeeded("a.txt", json.RawMessage(`{"text":"hi"}`))
	if !ok.OK() || ok.Error != "" {
		t.Errorf("Succeeded() = %+v, want result only", ok)
	}

	failed := Failed("a.txt", "boom")
	if failed.OK() || len(failed.Result) != 0 {
		t.Errorf("Failed() = %+v, want error only", failed)
	}

	data, err := json.Marshal(failed)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "result") {
		t.Errorf("failed item serialized a result field: %s", data)
	}
}

func TestCapabilityString(t *testing.T) {
	if CapabilityImage.String() != "image" {
		t.Errorf("CapabilityImage.String() = %q", CapabilityImage.String())
	}
	if Capability(0).String() != "unknown" {
		t.Errorf("Capability(0).String() = %q", Capability(0).String())
	}
}
