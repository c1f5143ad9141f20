package ipc

import (
	"encoding/json"
	"testing"

	"github.com/tilewm/tilewm/internal/tree"
)

func TestParseDirection(t *testing.T) {
	cases := []struct {
		in   string
		want tree.Direction
		ok   bool
	}{
		{"left", tree.DirLeft, true},
		{"right", tree.DirRight, true},
		{"up", tree.DirUp, true},
		{"down", tree.DirDown, true},
		{"north", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDirection(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseDirection(%q) = %v, %v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseDirection(%q) should fail", tc.in)
		}
	}
}

func TestParseOrientation(t *testing.T) {
	for _, in := range []string{"vertical", "v"} {
		if o, err := ParseOrientation(in); err != nil || o != tree.Vertical {
			t.Errorf("ParseOrientation(%q) = %v, %v", in, o, err)
		}
	}
	for _, in := range []string{"horizontal", "h"} {
		if o, err := ParseOrientation(in); err != nil || o != tree.Horizontal {
			t.Errorf("ParseOrientation(%q) = %v, %v", in, o, err)
		}
	}
	if _, err := ParseOrientation("diagonal"); err == nil {
		t.Errorf("ParseOrientation should reject unknown values")
	}
}

func TestRequestRoundTrip(t *testing.T) {
	payload, _ := json.Marshal(ResizePayload{Direction: "right", Delta: 0.1})
	req := &Request{Command: CommandResize, Payload: payload}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseRequest(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Command != CommandResize {
		t.Fatalf("command = %s", parsed.Command)
	}
	var p ResizePayload
	if err := json.Unmarshal(parsed.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Direction != "right" || p.Delta != 0.1 {
		t.Fatalf("payload round trip lost data: %+v", p)
	}
}

func TestErrorResponse(t *testing.T) {
	resp := NewErrorResponse("boom")
	data, err := resp.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Response
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Status != "ERROR" || back.Error != "boom" {
		t.Fatalf("unexpected response %+v", back)
	}
}
