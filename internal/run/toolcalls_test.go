// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package run

import (
	"errors"
	"testing"
)

func TestRegistry_StartAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Start("t1", "search"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	tc, ok := r.Get("t1")
	if !ok {
		t.Fatal("Get(t1) not found")
	}
	if tc.Name != "search" || tc.Status != ToolCalling || tc.Args != "" {
		t.Errorf("unexpected entry: %+v", tc)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) should not find an entry")
	}
}

func TestRegistry_EmptyIDRejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Start("", "search"); !errors.Is(err, ErrEmptyToolCallID) {
		t.Errorf("Start(\"\") error = %v, want ErrEmptyToolCallID", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_ReArmKeepsNameWhenMissing(t *testing.T) {
	r := NewRegistry()
	r.Start("t1", "search")
	r.AddArgs("t1", "abc", ArgsAppend)
	r.Start("t1", "")

	tc, _ := r.Get("t1")
	if tc.Name != "search" {
		t.Errorf("Name = %q, want search", tc.Name)
	}
	if tc.Args != "" {
		t.Errorf("Args = %q, want empty after re-arm", tc.Args)
	}
}

func TestRegistry_UnknownIDs(t *testing.T) {
	r := NewRegistry()

	if err := r.AddArgs("ghost", "x", ArgsAppend); !errors.Is(err, ErrUnknownToolCall) {
		t.Errorf("AddArgs error = %v, want ErrUnknownToolCall", err)
	}
	if err := r.Complete("ghost", "x"); !errors.Is(err, ErrUnknownToolCall) {
		t.Errorf("Complete error = %v, want ErrUnknownToolCall", err)
	}
	if r.Len() != 0 {
		t.Error("unknown IDs must never create entries")
	}
}

func TestRegistry_CompletedIsFinal(t *testing.T) {
	r := NewRegistry()
	r.Start("t1", "search")
	r.Complete("t1", "first")

	if err := r.Start("t1", "search"); !errors.Is(err, ErrToolCallCompleted) {
		t.Errorf("Start on completed error = %v", err)
	}
	if err := r.AddArgs("t1", "x", ArgsAppend); !errors.Is(err, ErrToolCallCompleted) {
		t.Errorf("AddArgs on completed error = %v", err)
	}
	if err := r.Complete("t1", "second"); err != nil {
		t.Errorf("repeated Complete error = %v", err)
	}

	tc, _ := r.Get("t1")
	if tc.Status != ToolCompleted || tc.Result != "second" || !tc.HasResult {
		t.Errorf("unexpected entry: %+v", tc)
	}
}

func TestRegistry_ListIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Start("t1", "search")

	list := r.List()
	list[0].Name = "changed"

	tc, _ := r.Get("t1")
	if tc.Name != "search" {
		t.Error("List must return copies")
	}
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	r.Start("t1", "a")
	r.Start("t2", "b")
	r.Reset()

	if r.Len() != 0 || len(r.List()) != 0 {
		t.Error("Reset should remove all entries")
	}
	if err := r.Start("t1", "a"); err != nil {
		t.Errorf("Start after Reset error = %v", err)
	}
}

func TestParseArgsMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ArgsMode
		wantErr bool
	}{
		{"", ArgsAppend, false},
		{"append", ArgsAppend, false},
		{"Replace", ArgsReplace, false},
		{" replace ", ArgsReplace, false},
		{"merge", ArgsAppend, true},
	}

	for _, tc := range tests {
		got, err := ParseArgsMode(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseArgsMode(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseArgsMode(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
