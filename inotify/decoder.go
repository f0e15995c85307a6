// Package inotify decodes the Linux inotify event stream and wraps the
// syscalls that feed it.
package inotify

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/xerrors"
)

const (
	// hdrSize is the fixed part of a wire record: wd, mask, cookie and
	// name length, four 32-bit fields in native byte order.
	hdrSize = 16

	// bufSize must hold at least one maximum-size record.
	bufSize = 64 * 1024

	maxName = bufSize - hdrSize
)

// Source is the descriptor-like handle a Decoder drains. *Queue implements
// it.
type Source interface {
	// Readable returns the number of bytes ready on the descriptor
	// without reading them.
	Readable() (int, error)

	// Read fills p with at most len(p) bytes, blocking while none are
	// ready.
	Read(p []byte) (int, error)

	// Fd identifies the descriptor in diagnostics.
	Fd() int
}

// CorruptStreamError reports that the bytes read from a descriptor are
// inconsistent with the inotify record layout. The decoder that returned
// it must be discarded together with the descriptor.
type CorruptStreamError struct {
	Fd int
}

func (e *CorruptStreamError) Error() string {
	return fmt.Sprintf("inotify: data read from fd %d seems to be garbage; is it really a watch queue descriptor?", e.Fd)
}

// EncodingError reports a record whose name field was not valid UTF-8.
// Offset is the byte position of the name within the decoded stream.
type EncodingError struct {
	Offset int64
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("inotify: name at stream offset %d is not valid UTF-8", e.Offset)
}

// Decoder incrementally decodes the record stream of a single watch queue.
// It keeps a partial trailing record between calls, so a Decoder must not
// be reused against a different queue. Calls to Drain must be serialized
// by the caller; independent queues may each own a Decoder and be drained
// concurrently.
type Decoder struct {
	buf []byte
	pos int   // length of the unconsumed record tail at the start of buf
	off int64 // stream offset of buf[0] since the decoder was created
}

// NewDecoder returns a decoder with an empty buffer.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, bufSize)}
}

// Pending returns the number of buffered bytes of a partial record carried
// over from the previous Drain.
func (d *Decoder) Pending() int {
	return d.pos
}

// Drain reads every byte the queue reports as immediately available and
// decodes it into events, in arrival order. When block is true and the
// queue is empty, Drain waits for the next batch of events; otherwise an
// empty queue yields no events and no error. A record split across the end
// of the batch is kept and completed by the next call.
//
// On error no events are returned: syscall failures are wrapped and a
// *CorruptStreamError means the descriptor never was, or no longer is, a
// usable watch queue.
func (d *Decoder) Drain(src Source, block bool) ([]Event, error) {
	avail, err := src.Readable()
	if err != nil {
		return nil, xerrors.Errorf("readable byte count from watch queue: %w", err)
	}
	if avail == 0 && !block {
		return nil, nil
	}

	var events []Event
	read := 0
	for read < avail || avail == 0 {
		space := d.buf[d.pos:]
		if avail > 0 && avail-read < len(space) {
			space = space[:avail-read]
		}
		n, err := src.Read(space)
		if err != nil {
			return nil, xerrors.Errorf("read watch queue: %w", err)
		}
		if n == 0 {
			return nil, xerrors.Errorf("read watch queue: unexpected empty read")
		}
		if avail == 0 {
			// Woken from an empty queue: this read is the batch.
			avail = n
		}
		read += n
		d.pos += n
		events, err = d.extract(events, src.Fd(), avail-read)
		if err != nil {
			return nil, err
		}
	}
	return events, nil
}

// extract scans complete records out of buf[:pos], appends their events,
// and shifts a trailing partial record to the start of the buffer. still
// is the number of bytes the source has yet to deliver in this drain.
func (d *Decoder) extract(events []Event, fd int, still int) ([]Event, error) {
	off := 0
	for d.pos-off >= hdrSize {
		wd := int32(binary.NativeEndian.Uint32(d.buf[off:]))
		mask := binary.NativeEndian.Uint32(d.buf[off+4:])
		cookie := binary.NativeEndian.Uint32(d.buf[off+8:])
		declared := binary.NativeEndian.Uint32(d.buf[off+12:])

		// A name that can never fit the buffer, or that is longer than
		// the bytes this drain can still deliver, cannot belong to a
		// real record. Compare in 64 bits so a garbage length cannot
		// wrap on 32-bit platforms.
		if int64(declared) > maxName || int64(declared) > int64(d.pos-off-hdrSize+still) {
			return nil, &CorruptStreamError{Fd: fd}
		}
		nlen := int(declared)
		if d.pos-off-hdrSize < nlen {
			break // partial record, completed by the next read
		}

		ev := Event{Wd: wd, Mask: mask}
		if IsMove(mask) {
			ev.Cookie = cookie
		}
		if nlen > 0 {
			// The declared length includes the NUL terminator and
			// padding; only the prefix up to the NUL counts.
			name := d.buf[off+hdrSize : off+hdrSize+nlen]
			if i := bytes.IndexByte(name, 0); i >= 0 {
				name = name[:i]
			}
			if utf8.Valid(name) {
				ev.Name = string(name)
			} else {
				ev.Name = strings.ToValidUTF8(string(name), "�")
				ev.NameErr = &EncodingError{Offset: d.off + int64(off+hdrSize)}
			}
		}
		events = append(events, ev)
		off += hdrSize + nlen
	}

	if tail := d.pos - off; tail > 0 && tail < hdrSize && off == 0 && still == 0 {
		// Not even a header arrived and nothing more is coming.
		return nil, &CorruptStreamError{Fd: fd}
	}
	copy(d.buf, d.buf[off:d.pos])
	d.pos -= off
	d.off += int64(off)
	return events, nil
}
