package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fixedJitter always draws the same dither.
type fixedJitter int

func (j fixedJitter) IntN(n int) int {
	return int(j) % n
}

func headerLines() []string {
	lines := make([]string, 9)
	for i := range lines {
		lines[i] = fmt.Sprintf("# header line %d", i)
	}
	return lines
}

func summaryLine(board, channel, lowGain, highGain int, timestamp float64, triggerID, nhits int) string {
	return fmt.Sprintf("%d %d %d %d %.3f %d %d", board, channel, lowGain, highGain, timestamp, triggerID, nhits)
}

func detailLine(board, channel, lowGain, highGain int) string {
	return fmt.Sprintf("%d\t%d\t%d\t%d", board, channel, lowGain, highGain)
}

// blockLines returns a block of board for triggerID with channels 0..nhits-1,
// every channel reading highGain.
func blockLines(board, triggerID, nhits, highGain int) []string {
	lines := []string{summaryLine(board, 0, highGain/10, highGain, float64(triggerID)*0.5, triggerID, nhits)}
	for channel := 1; channel < nhits; channel++ {
		lines = append(lines, detailLine(board, channel, highGain/10, highGain))
	}
	return lines
}

// growingFile is a list file written while a reader tails it.
type growingFile struct {
	t    *testing.T
	path string
	file *os.File
}

func newGrowingFile(t *testing.T) *growingFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Run_list.txt")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating list file: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return &growingFile{t: t, path: path, file: file}
}

func (g *growingFile) write(s string) {
	g.t.Helper()
	if _, err := g.file.WriteString(s); err != nil {
		g.t.Fatalf("writing list file: %v", err)
	}
}

func (g *growingFile) writeLines(lines ...string) {
	g.t.Helper()
	for _, l := range lines {
		g.write(l + "\n")
	}
}

func testOptions(caenUnits, channels int) ReaderOptions {
	return ReaderOptions{
		HeaderLines:          9,
		Channels:             channels,
		DropIncompleteBlocks: true,
		Calibration:          DefaultCalibration(),
		Geometry:             NewGeometry(caenUnits, channels),
		Jitter:               fixedJitter(0),
	}
}

func openReader(t *testing.T, path string, opts ReaderOptions) *BlockReader {
	t.Helper()
	reader, err := OpenBlockReader(path, opts)
	if err != nil {
		t.Fatalf("OpenBlockReader: %v", err)
	}
	t.Cleanup(func() { reader.Close() })
	return reader
}

func testConfiguration(caenUnits, channels int) Configuration {
	config := DefaultConfiguration()
	config.CaenUnits = caenUnits
	config.Channels = channels
	config.Retention = 100
	config.IdleIntervalMs = 1
	return config
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
