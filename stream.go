package dcmstream

import (
	"bytes"
	"compress/flate"
	"errors"
	"io"
	"sync"
)

/*
===============================================================================
    Decoder: Chunked Input
===============================================================================
*/

type decoderPhase int

const (
	phaseHeader   decoderPhase = iota // waiting for the preamble and magic
	phaseMeta                         // decoding the explicit little endian meta group
	phaseDeflated                     // buffering a deflated data set until it can be inflated
	phaseDataSet                      // decoding the main data set
	phaseDone
)

// DecoderStats reports progress counters of a Decoder
type DecoderStats struct {
	Chunks        int   // number of calls to Feed
	StreamedBytes int64 // bytes passed to Feed
	ConsumedBytes int64 // bytes decoded into complete elements, including the header
}

// Decoder decodes a DICOM file supplied as a sequence of chunks of arbitrary size.
// Elements split across chunks are held back and decoded once the following chunk
// arrives, so the result does not depend on how the input was split.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	cfg   Config
	ctx   *ParseContext
	dcm   *Dicom
	phase decoderPhase
	err   error

	carry      []byte // undecoded tail of the previous chunk
	compressed []byte // deflated bytes not yet inflated
	inflater   *inflateReader
	stats      DecoderStats
}

// NewDecoder returns a Decoder, or an `InvalidConfig` error
func NewDecoder(cfg Config) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dcm := &Dicom{Meta: NewDataSet(), DataSet: NewDataSet()}
	return &Decoder{
		cfg: cfg,
		ctx: newParseContext(cfg, dcm.Meta),
		dcm: dcm,
	}, nil
}

// Stats returns the decoder's progress counters
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Feed decodes as much of `chunk` as possible. Bytes belonging to an incomplete
// element are retained until the next call. `chunk` is not retained.
func (d *Decoder) Feed(chunk []byte) error {
	if d.err != nil {
		return d.err
	}
	if d.phase == phaseDone {
		return InvariantViolationError("Feed() called after Finish()")
	}
	d.stats.Chunks++
	d.stats.StreamedBytes += int64(len(chunk))
	d.ctx.log.Debugf("chunk #%d: %d bytes", d.stats.Chunks, len(chunk))

	if d.phase == phaseDeflated {
		d.compressed = append(d.compressed, chunk...)
		return nil
	}
	if err := d.decode(d.stitch(chunk)); err != nil {
		d.err = err
		return err
	}
	return nil
}

// stitch appends `chunk` to the carried-over tail of the previous chunk.
// The carry buffer is reused, so its capacity grows with the largest incomplete element.
func (d *Decoder) stitch(chunk []byte) []byte {
	if len(d.carry) == 0 {
		return chunk
	}
	d.ctx.log.Debugf("stitching %d carried bytes onto %d byte chunk", len(d.carry), len(chunk))
	d.carry = append(d.carry, chunk...)
	return d.carry
}

// keep retains `tail` for the next chunk. `tail` may alias the carry buffer.
func (d *Decoder) keep(tail []byte) {
	d.carry = append(d.carry[:0], tail...)
}

func (d *Decoder) decode(buf []byte) error {
	for len(buf) > 0 {
		switch d.phase {
		case phaseHeader:
			if len(buf) < HeaderLength {
				d.keep(buf)
				return nil
			}
			if err := validateHeader(buf); err != nil {
				return err
			}
			copy(d.dcm.Preamble[:], buf[:128])
			buf = buf[HeaderLength:]
			d.stats.ConsumedBytes += HeaderLength
			d.phase = phaseMeta
			d.ctx.metaPhase = true
		case phaseMeta:
			tail, truncated, err := parse(buf, d.stats.ConsumedBytes, d.ctx)
			if err != nil {
				return err
			}
			d.stats.ConsumedBytes += int64(len(buf) - len(tail))
			if !d.ctx.metaDone {
				if truncated {
					d.keep(tail)
				} else {
					d.keep(nil)
				}
				return nil
			}
			if err := d.finishMeta(tail); err != nil {
				return err
			}
			buf = tail
		case phaseDeflated:
			d.compressed = append(d.compressed, buf...)
			d.keep(nil)
			return nil
		case phaseDataSet:
			tail, _, err := parse(buf, d.stats.ConsumedBytes, d.ctx)
			if err != nil {
				return err
			}
			d.stats.ConsumedBytes += int64(len(buf) - len(tail))
			d.keep(tail)
			return nil
		default:
			return InvariantViolationError("decode() in phase %d", d.phase)
		}
	}
	d.keep(nil)
	return nil
}

// finishMeta switches to the transfer syntax declared in the meta group.
// `next` holds the first bytes of the main data set, if any.
func (d *Decoder) finishMeta(next []byte) error {
	d.ctx.metaPhase = false
	d.ctx.metaDone = false

	var uid string
	if _, err := d.dcm.Meta.GetElementValue(TransferSyntaxUIDTag, &uid); err != nil {
		return MalformedError("transfer syntax UID: %v", err)
	}
	var ts TransferSyntax
	if uid == "" {
		guessed, success := guessTransferSyntax(next)
		if !success {
			guessed, _ = LookupTransferSyntax(supportedDefaultUID)
		}
		d.ctx.log.Warnf("missing transfer syntax in meta group; assuming %s", guessed)
		ts = guessed
	} else {
		var err error
		if ts, err = LookupTransferSyntax(uid); err != nil {
			return err
		}
	}
	d.ctx.log.Debugf("transfer syntax: %s", ts)
	d.dcm.TransferSyntax = ts
	d.ctx.useTransferSyntax(ts)
	d.ctx.DataSet = d.dcm.DataSet
	if ts.Deflated {
		d.phase = phaseDeflated
	} else {
		d.phase = phaseDataSet
	}
	return nil
}

// inflate wraps `src` so that it yields the inflated data set, starting with any
// deflated bytes already received.
func (d *Decoder) inflate(src io.Reader) io.Reader {
	pending := d.compressed
	d.compressed = nil
	d.phase = phaseDataSet
	d.inflater = &inflateReader{ReadCloser: flate.NewReader(io.MultiReader(bytes.NewReader(pending), src))}
	return d.inflater
}

// inflateReader records the first error of the decompressor other than io.EOF.
// `io.ReadFull` reports a short final read as io.ErrUnexpectedEOF, which would
// otherwise hide a truncated deflate stream.
type inflateReader struct {
	io.ReadCloser
	err error
}

func (r *inflateReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if err != nil && err != io.EOF && r.err == nil {
		r.err = err
	}
	return n, err
}

// Finish decodes any remaining input, waits for asynchronous hooks, and returns the result.
func (d *Decoder) Finish() (*Dicom, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.inflater != nil {
		defer d.inflater.Close()
	}
	switch d.phase {
	case phaseDone:
		return d.dcm, nil
	case phaseHeader:
		return nil, NotADicomError("input is %d bytes, shorter than the %d byte header", d.stats.StreamedBytes, HeaderLength)
	case phaseMeta:
		if len(d.carry) > 0 {
			return nil, d.truncated()
		}
		if err := d.finishMeta(nil); err != nil {
			return nil, err
		}
	}
	if d.phase == phaseDeflated {
		if err := d.inflateRemaining(); err != nil {
			return nil, err
		}
	}
	if len(d.carry) > 0 {
		return nil, d.truncated()
	}
	d.checkAlignment()
	d.ctx.hooks.wait()
	d.phase = phaseDone
	return d.dcm, nil
}

// inflateRemaining inflates buffered deflated bytes and decodes them as one window
func (d *Decoder) inflateRemaining() error {
	d.phase = phaseDataSet
	if len(d.compressed) == 0 {
		return nil
	}
	r := flate.NewReader(bytes.NewReader(d.compressed))
	defer r.Close()
	inflated, err := io.ReadAll(r)
	if err != nil {
		return MalformedError("inflating data set: %v", err)
	}
	d.compressed = nil
	return d.decode(inflated)
}

func (d *Decoder) truncated() error {
	var tag Tag
	if len(d.carry) >= 4 {
		tag = tagFromBytes(d.carry, d.ctx)
	}
	d.err = &DecodeError{
		Tag:      tag,
		Position: d.stats.ConsumedBytes,
		Err:      TruncatedError("input ended %d bytes into an incomplete element", len(d.carry)),
	}
	return d.err
}

// checkAlignment verifies that every streamed byte was consumed by a complete element.
// Deflated inputs are excluded, as consumed bytes are counted after inflation.
func (d *Decoder) checkAlignment() {
	if d.dcm.TransferSyntax.Deflated {
		return
	}
	if d.stats.ConsumedBytes != d.stats.StreamedBytes {
		d.ctx.log.Errorf("misaligned end of stream: consumed %d of %d bytes", d.stats.ConsumedBytes, d.stats.StreamedBytes)
		return
	}
	d.ctx.log.Debugf("end of stream aligned at %d bytes", d.stats.ConsumedBytes)
}

/*
===============================================================================
    Chunk Buffers
===============================================================================
*/

// chunkPool provides reusable read buffers for `ParseStream`
type chunkPool struct {
	pool sync.Pool
}

var chunks = &chunkPool{}

func (cp *chunkPool) Get(size int) *[]byte {
	if buf, ok := cp.pool.Get().(*[]byte); ok && cap(*buf) >= size {
		*buf = (*buf)[:size]
		return buf
	}
	buf := make([]byte, size)
	return &buf
}

func (cp *chunkPool) Put(buf *[]byte) {
	cp.pool.Put(buf)
}

// ParseStream decodes a DICOM file from `source`, reading `cfg.ChunkSize` bytes at a time.
func ParseStream(source io.Reader, cfg Config) (*Dicom, error) {
	d, err := NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.ChunkSize < SmallChunkThreshold {
		d.ctx.log.Warnf("chunk size of %d bytes is below %d bytes; decoding will be slow", cfg.ChunkSize, SmallChunkThreshold)
	}
	buf := chunks.Get(cfg.ChunkSize)
	defer chunks.Put(buf)

	src := source
	for {
		n, rerr := io.ReadFull(src, *buf)
		if n > 0 {
			if err := d.Feed((*buf)[:n]); err != nil {
				return nil, err
			}
		}
		if d.phase == phaseDeflated {
			src = d.inflate(src)
			continue
		}
		if d.inflater != nil && d.inflater.err != nil {
			return nil, MalformedError("inflating data set: %v", d.inflater.err)
		}
		if rerr == io.EOF || errors.Is(rerr, io.ErrUnexpectedEOF) {
			break
		}
		if rerr != nil {
			if d.inflater != nil {
				return nil, MalformedError("inflating data set: %v", rerr)
			}
			return nil, rerr
		}
	}
	return d.Finish()
}
