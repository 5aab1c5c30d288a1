// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pointer/classify_test.go
// Summary: Exercises the button and device classification tables.
// Usage: Executed during `go test` to guard against regressions.

package pointer

import "testing"

func TestClassifyButton(t *testing.T) {
	cases := []struct {
		code int
		want Button
	}{
		{0, ButtonLeft},
		{1, ButtonMiddle},
		{2, ButtonRight},
		{3, Button4},
		{4, Button5},
		{5, ButtonNone},
		{-1, ButtonNone},
		{42, ButtonNone},
	}
	for _, c := range cases {
		if got := ClassifyButton(c.code); got != c.want {
			t.Fatalf("code %d: got %d, want %d", c.code, got, c.want)
		}
	}
}

func TestClassifyDevice(t *testing.T) {
	cases := []struct {
		in   string
		want DeviceKind
	}{
		{"mouse", DeviceMouse},
		{"touch", DeviceTouch},
		{"pen", DeviceStylus},
		{"stylus", DeviceStylus},
		{"", DeviceOther},
		{"trackball", DeviceOther},
	}
	for _, c := range cases {
		if got := ClassifyDevice(c.in); got != c.want {
			t.Fatalf("%q: got %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50}
	if !r.Contains(0, 0) || !r.Contains(100, 50) {
		t.Fatalf("edges are inclusive")
	}
	if r.Contains(100.1, 10) || r.Contains(10, -0.1) {
		t.Fatalf("outside coordinates must not match")
	}
}
