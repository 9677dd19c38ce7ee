package ui

import (
	"testing"

	"github.com/sfsam/nvgrid/wire"
)

func benchState(width, height int) *State {
	s := NewState()
	s.Redraw([]wire.Value{
		wire.Array(wire.String("grid_resize"),
			wire.Array(wire.Int(1), wire.Int(int64(width)), wire.Int(int64(height)))),
		wire.Array(wire.String("hl_attr_define"),
			wire.Array(wire.Int(1), wire.Map(wire.KV("foreground", wire.Int(0xFF0000)))),
			wire.Array(wire.Int(2), wire.Map(wire.KV("bold", wire.Bool(true))))),
	})
	return s
}

func benchBatch(rows, width int) []wire.Value {
	events := make([]wire.Value, 0, rows+1)
	for row := 0; row < rows; row++ {
		runs := wire.Array(
			wire.Array(wire.String("p"), wire.Int(1), wire.Int(int64(width/2))),
			wire.Array(wire.String("q"), wire.Int(2), wire.Int(int64(width/2))),
		)
		events = append(events, wire.Array(
			wire.String("grid_line"),
			wire.Array(wire.Int(1), wire.Int(int64(row)), wire.Int(0), runs),
		))
	}
	events = append(events, wire.Array(wire.String("flush"), wire.Array()))
	return events
}

func BenchmarkRedrawFullScreen(b *testing.B) {
	s := benchState(80, 24)
	batch := benchBatch(24, 80)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Redraw(batch)
	}
}

func BenchmarkFlushPublish(b *testing.B) {
	s := benchState(80, 24)
	flush := []wire.Value{wire.Array(wire.String("flush"), wire.Array())}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Redraw(flush)
	}
}
