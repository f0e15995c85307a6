package main

import (
	"testing"

	"github.com/inoq/inoq/inotify"
)

func TestMatchPatterns(t *testing.T) {
	tests := []struct {
		t, pat string
		wants  bool
	}{
		{"ab/cd/efg", "**/efg", true},
		{"ab/cd/efg", "*/efg", false},
		{"./abc.efg", "**/*.efg", true},
		{"./abc.efg", "*.efg", true},
		{"./.abc", "**/.*", true},
		{"./.abc", ".*", true},
	}

	for _, test := range tests {
		r, err := matchPatterns(test.t, []string{test.pat})
		if err != nil {
			t.Fatalf("matchPatterns(%v, {%v}): %v", test.t, test.pat, err)
		}
		if r != test.wants {
			t.Fatalf("matchPatterns(%v, {%v}) = %v wants %v", test.t, test.pat, r, test.wants)
		}
	}
}

func TestParseEvents(t *testing.T) {
	tests := []struct {
		events []string
		wants  uint32
	}{
		{nil, inotify.AllEvents},
		{[]string{"create"}, inotify.Create},
		{[]string{"CREATE", "modify"}, inotify.Create | inotify.Modify},
		{[]string{"close"}, inotify.CloseWrite | inotify.CloseNowrite},
		{[]string{"move"}, inotify.MovedFrom | inotify.MovedTo | inotify.MoveSelf},
		{[]string{"delete"}, inotify.Delete | inotify.DeleteSelf},
	}
	for _, test := range tests {
		mask, err := parseEvents(test.events)
		if err != nil {
			t.Fatalf("parseEvents(%v): %v", test.events, err)
		}
		if mask != test.wants {
			t.Fatalf("parseEvents(%v) = %#x, wants %#x", test.events, mask, test.wants)
		}
	}

	if _, err := parseEvents([]string{"bogus"}); err == nil {
		t.Fatal("parseEvents must reject unknown event kinds")
	}
}
