package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/pflag"
	"golang.org/x/xerrors"

	"github.com/inoq/inoq/inotify"
)

var (
	version string
	usage   = `Usage: inoq [OPTION]... [PATH]...
Watch the given paths (default "./") and print file change events as they
arrive.

Options:`
	patterns = pflag.StringArrayP("pattern", "p", nil, "print only pathnames matching the `glob` pattern (default \"**\")")
	ignores  = pflag.StringArrayP("ignore", "i", nil, "ignore pathname `glob` pattern")
	events   = pflag.StringArrayP("event", "e", nil, "watch only the given `event` kind (ACCESS|MODIFY|ATTRIB|CLOSE|OPEN|MOVE|CREATE|DELETE)")
	limits   = pflag.Bool("limits", false, "print the kernel watch queue limits and exit")
	verbose  = pflag.BoolP("verbose", "v", false, "verbose output")
	help     = pflag.BoolP("help", "h", false, "display this message")
	showver  = pflag.BoolP("version", "V", false, "display version")
)

// notification is the backend-independent change report printed by the
// event loop.
type notification struct {
	path  string
	kinds string
}

func main() {
	pflag.Parse()
	if *help {
		fmt.Println("inoq version", versionstr())
		fmt.Println(usage)
		pflag.PrintDefaults()
		return
	}
	if *showver {
		fmt.Println("inoq version", versionstr())
		return
	}
	if *limits {
		printLimits()
		return
	}

	paths := pflag.Args()
	if len(paths) == 0 {
		paths = []string{"./"}
	}
	if *patterns == nil {
		*patterns = []string{"**"}
	}
	*patterns = removeCurDirPrefix(*patterns)
	*ignores = removeCurDirPrefix(*ignores)
	mask, err := parseEvents(*events)
	if err != nil {
		log.Fatalf("[INOQ] %v", err)
	}
	logVerbose("paths:    %q", paths)
	logVerbose("patterns: %q", *patterns)
	logVerbose("ignores:  %q", *ignores)
	logVerbose("mask:     %v", strings.Join(inotify.DecodeMask(mask), "|"))

	evC, errC, err := watchPaths(paths, mask)
	if err != nil {
		log.Fatalf("[INOQ] watcher error: %v", err)
	}

	go func() {
		for {
			select {
			case n, ok := <-evC:
				if !ok {
					log.Fatalf("[INOQ] watcher closed")
				}
				name := filepath.ToSlash(n.path)
				logVerbose("event: %s %q", n.kinds, name)

				if ignore, err := matchPatterns(name, *ignores); err != nil {
					log.Fatalf("[INOQ] match ignores: %v", err)
				} else if ignore {
					continue
				}
				if match, err := matchPatterns(name, *patterns); err != nil {
					log.Fatalf("[INOQ] match patterns: %v", err)
				} else if match {
					fmt.Printf("%s\t%s\n", n.kinds, name)
				}
			case err := <-errC:
				log.Fatalf("[INOQ] watcher error: %v", err)
			}
		}
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	sig := <-s
	log.Printf("[INOQ] signal: %v", sig)
}

func logVerbose(fmt string, args ...interface{}) {
	if *verbose {
		log.Printf("[INOQ] "+fmt, args...)
	}
}

func versionstr() string {
	if version != "" {
		return "v" + version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "(devel)"
	}
	return info.Main.Version
}

func removeCurDirPrefix(arr []string) []string {
	for i, s := range arr {
		if strings.HasPrefix(s, "./") {
			arr[i] = s[2:]
		}
	}
	return arr
}

func parseEvents(events []string) (uint32, error) {
	var mask uint32
	for _, e := range events {
		switch strings.ToUpper(e) {
		case "ACCESS":
			mask |= inotify.Access
		case "MODIFY":
			mask |= inotify.Modify
		case "ATTRIB":
			mask |= inotify.Attrib
		case "CLOSE":
			mask |= inotify.Close
		case "OPEN":
			mask |= inotify.Open
		case "MOVE":
			mask |= inotify.Move | inotify.MoveSelf
		case "CREATE":
			mask |= inotify.Create
		case "DELETE":
			mask |= inotify.Delete | inotify.DeleteSelf
		default:
			return 0, xerrors.Errorf("invalid event kind: %s", e)
		}
	}
	if mask == 0 {
		mask = inotify.AllEvents
	}
	return mask, nil
}

func matchPatterns(t string, pats []string) (bool, error) {
	if strings.HasPrefix(t, "./") {
		t = t[2:]
	}
	for _, p := range pats {
		m, err := doublestar.Match(p, t)
		if err != nil {
			return false, xerrors.Errorf("match(%v, %v): %w", p, t, err)
		}
		if m {
			return true, nil
		}
	}
	return false, nil
}
