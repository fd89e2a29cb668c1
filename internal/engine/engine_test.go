package engine

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/aristath/taskfuture/internal/future"
	"github.com/aristath/taskfuture/internal/status"
)

func TestScriptedEngine_ReplaysThenRepeats(t *testing.T) {
	e := NewScriptedEngine()
	id, err := e.Submit(status.Pending.Raw(), status.Success.Raw())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	want := []int32{1000, 3000, 3000, 3000}
	for i, w := range want {
		got, err := e.QueryStatus(id)
		if err != nil {
			t.Fatalf("query %d: unexpected error: %v", i+1, err)
		}
		if got != w {
			t.Errorf("query %d: got %d, want %d", i+1, got, w)
		}
	}

	if e.Polls(id) != 4 {
		t.Errorf("Polls() = %d, want 4", e.Polls(id))
	}
}

func TestScriptedEngine_IDsNeverReused(t *testing.T) {
	e := NewScriptedEngine()
	seen := make(map[future.TaskID]bool)

	for range 5 {
		id, err := e.Submit(status.Success.Raw())
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("ID %d reused", id)
		}
		seen[id] = true
	}
}

func TestScriptedEngine_Errors(t *testing.T) {
	e := NewScriptedEngine()

	if _, err := e.Submit(); err == nil {
		t.Error("expected error for empty script")
	}

	if _, err := e.QueryStatus(404); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
	if e.Polls(404) != 0 {
		t.Error("unknown task should report zero polls")
	}
}

func TestScriptedEngine_HandleWait(t *testing.T) {
	e := NewScriptedEngine()

	h, err := e.Handle([]int32{status.Pending.Raw(), status.Pending.Raw(), status.Success.Raw()})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	ok, err := h.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected success")
	}
	if polls := e.Polls(h.ID()); polls != 3 {
		t.Errorf("expected 3 polls, got %d", polls)
	}
}

func TestParseScript(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []int32
		wantErr bool
	}{
		{name: "names", spec: "pending,running,success", want: []int32{1000, 2000, 3000}},
		{name: "mixed case and spaces", spec: " Pending , FAILURE ", want: []int32{1000, 4000}},
		{name: "raw codes", spec: "1000,99", want: []int32{1000, 99}},
		{name: "unknown name", spec: "pending,finished", wantErr: true},
		{name: "empty", spec: " , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScript(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("code %d: got %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseScript_OutOfRangeCode(t *testing.T) {
	_, err := ParseScript("pending,99999999999")
	if !errors.Is(err, strconv.ErrRange) {
		t.Fatalf("expected strconv.ErrRange, got %v", err)
	}
	if errors.Is(err, status.ErrInvalidStatus) {
		t.Errorf("range error reported as invalid status name: %v", err)
	}
}
