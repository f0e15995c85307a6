package inotify

import (
	"fmt"
	"strings"
)

// Event is a single decoded record from a watch queue.
//
// Cookie links the IN_MOVED_FROM and IN_MOVED_TO halves of a rename and is
// zero for any other kind of event, even if the kernel record carried a
// stale value. Name is the directory entry the event concerns; it is empty
// for events on the watched entry itself.
type Event struct {
	Wd     int32
	Mask   uint32
	Cookie uint32
	Name   string

	// NameErr is non-nil when the kernel-supplied name was not valid
	// UTF-8. Name then holds a lossy decoding.
	NameErr error
}

func (e Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "event(wd=%d, mask=%s", e.Wd, strings.Join(DecodeMask(e.Mask), "|"))
	if e.Cookie != 0 {
		fmt.Fprintf(&b, ", cookie=0x%x", e.Cookie)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, ", name=%q", e.Name)
	}
	b.WriteByte(')')
	return b.String()
}
