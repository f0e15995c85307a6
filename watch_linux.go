//go:build linux

package main

import (
	"fmt"
	"log"
	"strings"

	"golang.org/x/xerrors"

	"github.com/inoq/inoq/inotify"
	"github.com/inoq/inoq/watcher"
)

func watchPaths(paths []string, mask uint32) (<-chan notification, <-chan error, error) {
	w, err := watcher.New()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range paths {
		if _, err := w.Add(p, mask); err != nil {
			w.Close()
			return nil, nil, err
		}
		logVerbose("watching: %q", p)
	}

	evC := make(chan notification)
	errC := make(chan error)

	go func() {
		defer close(evC)
		for {
			events, err := w.Read(true)
			if err != nil {
				errC <- xerrors.Errorf("drain watch queue: %w", err)
				return
			}
			for _, ev := range events {
				if ev.NameErr != nil {
					logVerbose("bad name encoding: %v", ev.NameErr)
				}
				if ev.Mask&inotify.Ignored != 0 {
					continue
				}
				evC <- notification{
					path:  ev.Fullpath(),
					kinds: strings.Join(inotify.DecodeMask(ev.Mask), "|"),
				}
			}
		}
	}()

	return evC, errC, nil
}

func printLimits() {
	readers := []struct {
		name string
		read func() (int, error)
	}{
		{"max_queued_events", inotify.MaxQueuedEvents},
		{"max_user_instances", inotify.MaxUserInstances},
		{"max_user_watches", inotify.MaxUserWatches},
	}
	for _, r := range readers {
		n, err := r.read()
		if err != nil {
			log.Fatalf("[INOQ] %v", err)
		}
		fmt.Printf("%s\t%d\n", r.name, n)
	}
}
