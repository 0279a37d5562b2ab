// Copyright (c) 2024 The Velocity developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package log

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/btcsuite/btclog"
)

func TestSupportedSubsystems(t *testing.T) {
	want := []string{"CIDX", "VCTL", "VELO"}
	if got := SupportedSubsystems(); !reflect.DeepEqual(got, want) {
		t.Fatalf("SupportedSubsystems: got %v, want %v", got, want)
	}
}

func TestSetLogLevel(t *testing.T) {
	defer SetLogLevels("info")

	SetLogLevels("warn")
	for id, logger := range SubsystemLoggers {
		if logger.Level() != btclog.LevelWarn {
			t.Fatalf("subsystem %s: level %v, want warn", id,
				logger.Level())
		}
	}

	SetLogLevel("VELO", "debug")
	if veloLog.Level() != btclog.LevelDebug {
		t.Fatalf("VELO level %v, want debug", veloLog.Level())
	}
	if cidxLog.Level() != btclog.LevelWarn {
		t.Fatalf("CIDX level changed to %v", cidxLog.Level())
	}

	// Unknown subsystems are ignored and invalid levels fall back to info.
	SetLogLevel("NOPE", "debug")
	SetLogLevel("CIDX", "bogus")
	if cidxLog.Level() != btclog.LevelInfo {
		t.Fatalf("CIDX level %v, want info", cidxLog.Level())
	}
}

func TestValidLogLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"trace", true},
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"critical", true},
		{"off", true},
		{"verbose", false},
		{"", false},
	}
	for i, test := range tests {
		if got := ValidLogLevel(test.level); got != test.valid {
			t.Errorf("ValidLogLevel #%d (%q): got %v, want %v", i,
				test.level, got, test.valid)
		}
	}
}

func TestInitLogRotator(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "velocityctl.log")
	if err := InitLogRotator(logFile); err != nil {
		t.Fatalf("InitLogRotator: %v", err)
	}
	defer func() {
		LogRotator.Close()
		LogRotator = nil
	}()
	VctlLog.Infof("rotator test")
}
