package monitor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Block is the group of hits written together by one board for one trigger:
// a summary line followed by NHits-1 detail lines.
type Block struct {
	Board     int
	TriggerID int
	NHits     int
	// Hits has NHits entries indexed by channel.
	Hits []Slot
}

type line struct {
	text   string
	number int
}

// BlockReader tails a growing CAEN list file and returns complete blocks.
// It never blocks: when the producer has not written enough data yet, Next
// returns ErrNoDataYet and the caller is expected to retry later.
type BlockReader struct {
	source      io.Reader
	reader      *bufio.Reader
	decoder     hitDecoder
	headerLines int
	dropPartial bool

	// LineCount is the number of physical lines read so far, header included.
	LineCount int
	// DroppedLines counts lines discarded with incomplete blocks.
	DroppedLines int

	partial  strings.Builder
	replay   []line
	consumed []line
}

// ReaderOptions configures a BlockReader.
type ReaderOptions struct {
	HeaderLines int
	// Channels is the largest number of hits a block may declare. 0 selects
	// DefaultChannels.
	Channels             int
	DropIncompleteBlocks bool
	Calibration          Calibration
	Geometry             *Geometry
	Jitter               JitterSource
}

func ReaderOptionsFromConfig(config Configuration, geometry *Geometry, jitter JitterSource) ReaderOptions {
	return ReaderOptions{
		HeaderLines:          config.HeaderLines,
		Channels:             config.Channels,
		DropIncompleteBlocks: config.DropIncompleteBlocks,
		Calibration:          config.Calibration(),
		Geometry:             geometry,
		Jitter:               jitter,
	}
}

func NewBlockReader(source io.Reader, opts ReaderOptions) *BlockReader {
	maxHits := opts.Channels
	if maxHits <= 0 {
		maxHits = DefaultChannels
	}
	return &BlockReader{
		source: source,
		reader: bufio.NewReader(source),
		decoder: hitDecoder{
			calib:    opts.Calibration,
			geometry: opts.Geometry,
			jitter:   opts.Jitter,
			maxHits:  maxHits,
		},
		headerLines: opts.HeaderLines,
		dropPartial: opts.DropIncompleteBlocks,
	}
}

// OpenBlockReader opens filename for tailing. Failing to open the file is
// reported as *ErrOpenFile.
func OpenBlockReader(filename string, opts ReaderOptions) (*BlockReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Tailing file %s, skipping %d header lines", filename, opts.HeaderLines)
		logger.Info(message, "blockReader")
	}
	return NewBlockReader(file, opts), nil
}

func (r *BlockReader) Close() error {
	if closer, ok := r.source.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Next returns the next complete block. The possible errors are
// ErrNoDataYet, ErrPrematureBlock and *ErrMalformedHit. After a malformed
// line the block attempt is discarded and the following call resumes at the
// next physical line.
func (r *BlockReader) Next() (Block, error) {
	r.consumed = r.consumed[:0]

	first, err := r.readLine()
	if err != nil {
		return Block{}, err
	}
	sum, err := r.decoder.decodeSummary(first.text)
	if err != nil {
		return Block{}, &ErrMalformedHit{Line: first.text, LineNumber: first.number, Err: err}
	}
	if sum.hit.Channel < 0 || sum.hit.Channel >= sum.nhits {
		err := fmt.Errorf("channel %d outside block of %d hits", sum.hit.Channel, sum.nhits)
		return Block{}, &ErrMalformedHit{Line: first.text, LineNumber: first.number, Err: err}
	}

	block := Block{
		Board:     sum.hit.Board,
		TriggerID: sum.hit.TriggerID,
		NHits:     sum.nhits,
		Hits:      make([]Slot, sum.nhits),
	}
	block.Hits[sum.hit.Channel] = Present(sum.hit)

	for i := 1; i < sum.nhits; i++ {
		detail, err := r.readLine()
		if err != nil {
			r.abandonBlock()
			if !errors.Is(err, ErrNoDataYet) {
				return Block{}, err
			}
			return Block{}, ErrPrematureBlock
		}
		hit, err := r.decoder.decodeDetail(detail.text, sum.hit.Timestamp, sum.hit.TriggerID)
		if err != nil {
			return Block{}, &ErrMalformedHit{Line: detail.text, LineNumber: detail.number, Err: err}
		}
		if hit.Channel < 0 || hit.Channel >= sum.nhits {
			err := fmt.Errorf("channel %d outside block of %d hits", hit.Channel, sum.nhits)
			return Block{}, &ErrMalformedHit{Line: detail.text, LineNumber: detail.number, Err: err}
		}
		block.Hits[hit.Channel] = Present(hit)
	}
	return block, nil
}

// abandonBlock handles a block whose detail lines are not all written yet.
// Either the lines already read are dropped, or they are queued so the block
// is parsed again from its summary line on the next call.
func (r *BlockReader) abandonBlock() {
	if r.dropPartial {
		r.DroppedLines += len(r.consumed)
		if configuration.Verbosity > 0 {
			message := fmt.Sprintf("Dropping incomplete block starting at line %d (%d lines)",
				r.consumed[0].number, len(r.consumed))
			logger.Info(message, "blockReader")
		}
		return
	}
	pending := make([]line, 0, len(r.consumed)+len(r.replay))
	pending = append(pending, r.consumed...)
	pending = append(pending, r.replay...)
	r.replay = pending
}

// readLine returns the next non blank data line, skipping the header.
func (r *BlockReader) readLine() (line, error) {
	for {
		l, err := r.nextPhysicalLine()
		if err != nil {
			return line{}, err
		}
		if l.number <= r.headerLines {
			continue
		}
		if strings.TrimSpace(l.text) == "" {
			continue
		}
		r.consumed = append(r.consumed, l)
		return l, nil
	}
}

func (r *BlockReader) nextPhysicalLine() (line, error) {
	if len(r.replay) > 0 {
		l := r.replay[0]
		r.replay = r.replay[1:]
		return l, nil
	}

	chunk, err := r.reader.ReadString('\n')
	r.partial.WriteString(chunk)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return line{}, ErrNoDataYet
		}
		return line{}, fmt.Errorf("error reading line %d: %w", r.LineCount+1, err)
	}

	text := strings.TrimRight(r.partial.String(), "\r\n")
	r.partial.Reset()
	r.LineCount++
	return line{text: text, number: r.LineCount}, nil
}
