package monitor

import "fmt"

// Position is the display coordinate of one channel of one CAEN unit.
type Position struct {
	X int
	Y int
	Z int
}

// padsPerRow is the side of the 8x8 pad matrix read by each unit.
const padsPerRow = 8

// Geometry maps (board, channel) to a Position. It is filled once at
// construction and never modified afterwards.
type Geometry struct {
	caenUnits int
	channels  int
	positions []Position
}

// NewGeometry returns the default pad layout: x and y follow the 8x8 pad
// matrix of the unit and z is the unit index.
func NewGeometry(caenUnits int, channels int) *Geometry {
	g := &Geometry{
		caenUnits: caenUnits,
		channels:  channels,
		positions: make([]Position, caenUnits*channels),
	}
	for board := 0; board < caenUnits; board++ {
		for channel := 0; channel < channels; channel++ {
			g.positions[channel+channels*board] = defaultPosition(board, channel)
		}
	}
	return g
}

func defaultPosition(board int, channel int) Position {
	return Position{
		X: channel % padsPerRow,
		Y: channel / padsPerRow,
		Z: board,
	}
}

// NewGeometryFromPositions builds a geometry from an explicit table.
// Channels missing from the table keep the default layout.
func NewGeometryFromPositions(caenUnits int, channels int, entries []ChannelPosition) *Geometry {
	g := NewGeometry(caenUnits, channels)
	for _, entry := range entries {
		if !g.contains(entry.Board, entry.Channel) {
			message := fmt.Sprintf("Ignoring position of board %d channel %d: outside geometry", entry.Board, entry.Channel)
			logger.Error(message)
			continue
		}
		g.positions[entry.Channel+channels*entry.Board] = Position{X: entry.X, Y: entry.Y, Z: entry.Z}
	}
	return g
}

func (g *Geometry) contains(board int, channel int) bool {
	return board >= 0 && board < g.caenUnits && channel >= 0 && channel < g.channels
}

// Position returns the coordinates of a channel. Channels outside the
// geometry fall back to the default layout so decoding never fails on them.
func (g *Geometry) Position(board int, channel int) Position {
	if g == nil || !g.contains(board, channel) {
		return defaultPosition(board, channel)
	}
	return g.positions[channel+g.channels*board]
}
