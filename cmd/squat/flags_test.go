package main

import (
	"testing"
)

func TestFlagDefaults(t *testing.T) {
	if *width != 640 || *height != 480 {
		t.Errorf("expected default canvas 640x480, got %dx%d", *width, *height)
	}
	if *fps != 0 {
		t.Errorf("expected unpaced playback by default, got fps=%v", *fps)
	}
	if *adminListen != "" {
		t.Errorf("expected admin console disabled by default, got %q", *adminListen)
	}
	if *landmarksPath != "" || *dbPath != "" {
		t.Error("expected no default landmark stream or database")
	}
}

func TestStreamIf(t *testing.T) {
	if streamIf(false) != nil {
		t.Error("disabled stream should be a nil writer")
	}
	if streamIf(true) == nil {
		t.Error("enabled stream should not be nil")
	}
}
