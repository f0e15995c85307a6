package inotify

// Event mask bits of the Linux inotify ABI. The values are stable kernel
// constants, spelled out here instead of aliased from golang.org/x/sys/unix
// so that mask decoding and the stream decoder build on every platform.
// The syscall layer still goes through x/sys.
const (
	Access       = 0x00000001 // file was accessed
	Modify       = 0x00000002 // file was modified
	Attrib       = 0x00000004 // metadata changed
	CloseWrite   = 0x00000008 // writable file was closed
	CloseNowrite = 0x00000010 // unwritable file was closed
	Open         = 0x00000020 // file was opened
	MovedFrom    = 0x00000040 // file was moved away
	MovedTo      = 0x00000080 // file was moved in
	Create       = 0x00000100 // file was created
	Delete       = 0x00000200 // file was deleted
	DeleteSelf   = 0x00000400 // the watched entry itself was deleted
	MoveSelf     = 0x00000800 // the watched entry itself was moved

	Unmount   = 0x00002000 // backing filesystem was unmounted
	QOverflow = 0x00004000 // the kernel dropped events
	Ignored   = 0x00008000 // watch was removed

	// Watch options. They can be set on AddWatch but are never reported
	// in an event mask, except for IsDir.
	Onlydir    = 0x01000000
	DontFollow = 0x02000000
	ExclUnlink = 0x04000000
	MaskAdd    = 0x20000000
	IsDir      = 0x40000000
	Oneshot    = 0x80000000

	// Combined masks.
	Close     = CloseWrite | CloseNowrite
	Move      = MovedFrom | MovedTo
	AllEvents = 0x00000fff
)

// maskNames maps each single bit to its canonical kernel name, in the
// order DecodeMask reports them.
var maskNames = []struct {
	bit  uint32
	name string
}{
	{Access, "IN_ACCESS"},
	{Modify, "IN_MODIFY"},
	{Attrib, "IN_ATTRIB"},
	{CloseWrite, "IN_CLOSE_WRITE"},
	{CloseNowrite, "IN_CLOSE_NOWRITE"},
	{Open, "IN_OPEN"},
	{MovedFrom, "IN_MOVED_FROM"},
	{MovedTo, "IN_MOVED_TO"},
	{Create, "IN_CREATE"},
	{Delete, "IN_DELETE"},
	{DeleteSelf, "IN_DELETE_SELF"},
	{MoveSelf, "IN_MOVE_SELF"},
	{Unmount, "IN_UNMOUNT"},
	{QOverflow, "IN_Q_OVERFLOW"},
	{Ignored, "IN_IGNORED"},
	{Onlydir, "IN_ONLYDIR"},
	{DontFollow, "IN_DONT_FOLLOW"},
	{MaskAdd, "IN_MASK_ADD"},
	{IsDir, "IN_ISDIR"},
	{Oneshot, "IN_ONESHOT"},
	{ExclUnlink, "IN_EXCL_UNLINK"},
}

// DecodeMask returns the canonical name of every bit set in mask, in a
// fixed order. Combined masks such as IN_ALL_EVENTS are not reported.
func DecodeMask(mask uint32) []string {
	var names []string
	for _, b := range maskNames {
		if mask&b.bit != 0 {
			names = append(names, b.name)
		}
	}
	return names
}

// IsMove reports whether mask carries either half of a rename pair. Only
// such events have a meaningful rename cookie.
func IsMove(mask uint32) bool {
	return mask&Move != 0
}
