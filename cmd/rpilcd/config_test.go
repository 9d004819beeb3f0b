// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "rpilcd.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, DefaultConfig()); diff != "" {
		t.Errorf("LoadConfig(\"\") difference (-got +want):\n%s", diff)
	}

	path := writeConfig(t, `{"pins": {"rs": "GPIO20", "backlight": "GPIO21"}, "fifo": "/run/lcd", "http": ":8080"}`)
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	want.Pins.RS = "GPIO20"
	want.Pins.Backlight = "GPIO21"
	want.FIFO = "/run/lcd"
	want.HTTP = ":8080"
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Errorf("LoadConfig() difference (-got +want):\n%s", diff)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `{"pins": `, "failed to parse"},
		{"missing pin", `{"pins": {"d7": ""}}`, "pin d7 is not set"},
		{"pin reused", `{"pins": {"servo": "GPIO26"}}`, "used for both servo and rs"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("LoadConfig() error = %v, expected %q", err, tc.want)
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfigBackpack(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"pins": {"d7": "", "servo": "GPIO26"}, "backpack": {"bus": "1", "addr": 63}}`))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg.Backpack, &Backpack{Bus: "1", Addr: 0x3f}); diff != "" {
		t.Errorf("Backpack difference (-got +want):\n%s", diff)
	}
	if _, err := LoadConfig(writeConfig(t, `{"pins": {"servo": "GPIO4"}, "backpack": {}}`)); err == nil {
		t.Error("expected error for servo and dht11 on the same pin")
	}
}
