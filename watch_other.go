//go:build !linux

package main

import (
	"log"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/xerrors"

	"github.com/inoq/inoq/inotify"
)

// opsForMask translates the inotify-style event mask into the fsnotify
// operations to report.
func opsForMask(mask uint32) fsnotify.Op {
	var op fsnotify.Op
	if mask&inotify.Create != 0 {
		op |= fsnotify.Create
	}
	if mask&inotify.Modify != 0 {
		op |= fsnotify.Write
	}
	if mask&(inotify.Delete|inotify.DeleteSelf) != 0 {
		op |= fsnotify.Remove
	}
	if mask&(inotify.Move|inotify.MoveSelf) != 0 {
		op |= fsnotify.Rename
	}
	if mask&inotify.Attrib != 0 {
		op |= fsnotify.Chmod
	}
	return op
}

func watchPaths(paths []string, mask uint32) (<-chan notification, <-chan error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, nil, xerrors.Errorf("watch %s: %w", p, err)
		}
		logVerbose("watching: %q", p)
	}
	ops := opsForMask(mask)

	evC := make(chan notification)
	errC := make(chan error)

	go func() {
		defer close(evC)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					errC <- xerrors.New("watcher.Events closed")
					return
				}
				if !ev.Op.Has(ops) {
					continue
				}
				evC <- notification{path: ev.Name, kinds: ev.Op.String()}
			case err, ok := <-w.Errors:
				errC <- xerrors.Errorf("watcher.Errors (%v): %w", ok, err)
				return
			}
		}
	}()

	return evC, errC, nil
}

func printLimits() {
	log.Fatalf("[INOQ] watch queue limits are only available on linux")
}
