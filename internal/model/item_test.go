package model

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{StatusFound, StatusClaimed},
		{StatusClaimed, StatusReturned},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]string{
		{StatusFound, StatusReturned},   // no skipping
		{StatusClaimed, StatusFound},    // no going back
		{StatusReturned, StatusClaimed}, // no going back
		{StatusReturned, StatusReturned},
		{StatusFound, StatusFound},
		{"", StatusClaimed},
		{StatusFound, "archived"},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Errorf("expected %s -> %s to be denied", pair[0], pair[1])
		}
	}
}

func TestStatusKnown(t *testing.T) {
	for _, s := range []string{StatusFound, StatusClaimed, StatusReturned} {
		if !StatusKnown(s) {
			t.Errorf("expected %q to be known", s)
		}
	}
	for _, s := range []string{"", "archived", "FOUND"} {
		if StatusKnown(s) {
			t.Errorf("expected %q to be unknown", s)
		}
	}
}
