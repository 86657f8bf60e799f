package engine

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValidationConstants(t *testing.T) {
	tests := []struct {
		name     string
		actual   int
		expected int
	}{
		{"MinGridSize", MinGridSize, 1},
		{"MaxGridSize", MaxGridSize, 50},
		{"MaxBulkMoves", MaxBulkMoves, 50},
		{"WebSocketBufferSize", WebSocketBufferSize, 256},
	}

	for _, test := range tests {
		if test.actual != test.expected {
			t.Errorf("%s: expected %d, got %d", test.name, test.expected, test.actual)
		}
	}
}

func TestOutcomeAccepted(t *testing.T) {
	tests := []struct {
		outcome  Outcome
		accepted bool
	}{
		{Walked, true},
		{Pushed, true},
		{BlockedWall, false},
		{BlockedBoundary, false},
		{BlockedBlock, false},
		{InvalidDirection, false},
		{AlreadyComplete, false},
	}

	for _, test := range tests {
		if test.outcome.Accepted() != test.accepted {
			t.Errorf("%s: expected accepted=%v", test.outcome, test.accepted)
		}
	}
}

func TestPosition(t *testing.T) {
	p := Position{X: 2, Y: 3}
	if got := p.Add(Right.Delta()); got != (Position{X: 3, Y: 3}) {
		t.Errorf("Add: got %v", got)
	}
	if p.String() != "(2,3)" {
		t.Errorf("String: got %s", p.String())
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"x":2,"y":3}` {
		t.Errorf("Unexpected JSON %s", data)
	}
}

func TestManhattanDistance(t *testing.T) {
	tests := []struct {
		from, to Position
		expected int
	}{
		{Position{X: 0, Y: 0}, Position{X: 0, Y: 0}, 0},
		{Position{X: 1, Y: 1}, Position{X: 4, Y: 5}, 7},
		{Position{X: 4, Y: 5}, Position{X: 1, Y: 1}, 7},
	}

	for _, test := range tests {
		if got := ManhattanDistance(test.from, test.to); got != test.expected {
			t.Errorf("ManhattanDistance(%v, %v): expected %d, got %d", test.from, test.to, test.expected, got)
		}
	}
}

func TestCountersAndDistance(t *testing.T) {
	state := PuzzleState{
		Blocks:  []Position{{X: 1, Y: 1}, {X: 3, Y: 1}},
		Targets: []Position{{X: 1, Y: 1}, {X: 5, Y: 2}},
	}

	if got := CountBlocksOnTarget(state); got != 1 {
		t.Errorf("Expected 1 block on target, got %d", got)
	}
	// (3,1) is nearest to (1,1) at distance 2
	if got := BlockDistanceSum(state); got != 2 {
		t.Errorf("Expected distance sum 2, got %d", got)
	}
}

func TestRenderRows_MatchesLayout(t *testing.T) {
	layout := []string{
		"######",
		"#@$ .#",
		"# *  #",
		"######",
	}

	def, err := ParseLayout(1, layout)
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	state := Initialize(*def, "")
	if rows := RenderRows(state); !reflect.DeepEqual(rows, layout) {
		t.Errorf("Expected %q, got %q", layout, rows)
	}
	if RenderASCII(state) != "######\n#@$ .#\n# *  #\n######" {
		t.Error("RenderASCII should join rows with newlines")
	}
}

func TestRenderRows_PlayerOnTarget(t *testing.T) {
	def, err := ParseLayout(1, []string{"#+$ #"})
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	if rows := RenderRows(Initialize(*def, "")); rows[0] != "#+$ #" {
		t.Errorf("Expected player on target symbol, got %q", rows[0])
	}
}
