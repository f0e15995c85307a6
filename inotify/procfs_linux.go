//go:build linux

package inotify

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

const procfsDir = "/proc/sys/fs/inotify"

// MaxQueuedEvents returns the kernel limit on events queued per inotify
// instance.
func MaxQueuedEvents() (int, error) {
	return procfsValue("max_queued_events")
}

// MaxUserInstances returns the kernel limit on inotify instances per user.
func MaxUserInstances() (int, error) {
	return procfsValue("max_user_instances")
}

// MaxUserWatches returns the kernel limit on watches per user.
func MaxUserWatches() (int, error) {
	return procfsValue("max_user_watches")
}

func procfsValue(name string) (int, error) {
	b, err := os.ReadFile(filepath.Join(procfsDir, name))
	if err != nil {
		return 0, xerrors.Errorf("read inotify limit %s: %w", name, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, xerrors.Errorf("parse inotify limit %s: %w", name, err)
	}
	return n, nil
}
