//go:build linux

package inotify

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// Queue is an open inotify instance. The descriptor is kept in
// non-blocking mode and wrapped in an os.File, so a blocked Read parks on
// the runtime poller instead of pinning an OS thread, and Close from
// another goroutine fails it instead of leaving it hanging.
type Queue struct {
	f  *os.File
	fd int
}

var _ Source = (*Queue)(nil)

// NewQueue creates a new inotify instance.
func NewQueue() (*Queue, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, xerrors.Errorf("inotify_init1: %w", err)
	}
	return &Queue{f: os.NewFile(uintptr(fd), "inotify"), fd: fd}, nil
}

// AddWatch registers or updates a watch on path and returns its watch
// descriptor.
func (q *Queue) AddWatch(path string, mask uint32) (int32, error) {
	var wd int
	err := q.control(func(fd int) (err error) {
		wd, err = unix.InotifyAddWatch(fd, path, mask)
		return err
	})
	if err != nil {
		return 0, xerrors.Errorf("inotify_add_watch %s: %w", path, err)
	}
	return int32(wd), nil
}

// RemoveWatch drops the watch wd. The kernel acknowledges by queueing an
// IN_IGNORED event for wd.
func (q *Queue) RemoveWatch(wd int32) error {
	err := q.control(func(fd int) error {
		_, err := unix.InotifyRmWatch(fd, uint32(wd))
		return err
	})
	if err != nil {
		return xerrors.Errorf("inotify_rm_watch %d: %w", wd, err)
	}
	return nil
}

// Readable returns the number of bytes ready on the queue without reading
// them.
func (q *Queue) Readable() (int, error) {
	var n int
	err := q.control(func(fd int) (err error) {
		n, err = unix.IoctlGetInt(fd, unix.SIOCINQ)
		return err
	})
	if err != nil {
		return 0, xerrors.Errorf("ioctl FIONREAD: %w", err)
	}
	return n, nil
}

// Read fills p from the queue, blocking until at least one event is ready.
func (q *Queue) Read(p []byte) (int, error) {
	return q.f.Read(p)
}

// Fd returns the raw descriptor number for diagnostics.
func (q *Queue) Fd() int {
	return q.fd
}

// Close shuts the queue down, cancelling any blocked Read.
func (q *Queue) Close() error {
	return q.f.Close()
}

func (q *Queue) control(fn func(fd int) error) error {
	rc, err := q.f.SyscallConn()
	if err != nil {
		return err
	}
	var opErr error
	if err := rc.Control(func(fd uintptr) { opErr = fn(int(fd)) }); err != nil {
		return err
	}
	return opErr
}
