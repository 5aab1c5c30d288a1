// Copyright © 2025 Pointstream contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: pointer/classify.go
// Summary: Fixed-table mapping from native button codes and pointer-type strings.

package pointer

var buttonTable = map[int]Button{
	0: ButtonLeft,
	1: ButtonMiddle,
	2: ButtonRight,
	3: Button4,
	4: Button5,
}

var deviceTable = map[string]DeviceKind{
	"mouse":  DeviceMouse,
	"touch":  DeviceTouch,
	"pen":    DeviceStylus,
	"stylus": DeviceStylus,
}

// ClassifyButton maps a native button code to its semantic button.
// Codes outside the table map to ButtonNone.
func ClassifyButton(code int) Button {
	if b, ok := buttonTable[code]; ok {
		return b
	}
	return ButtonNone
}

// ClassifyDevice maps a native pointer-type string to its device kind.
// Unknown strings classify as DeviceOther.
func ClassifyDevice(pointerType string) DeviceKind {
	if d, ok := deviceTable[pointerType]; ok {
		return d
	}
	return DeviceOther
}
