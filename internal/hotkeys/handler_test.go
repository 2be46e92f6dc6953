package hotkeys

import (
	"reflect"
	"testing"
)

func TestIgnoreMasks(t *testing.T) {
	tests := []struct {
		name  string
		locks []uint16
		want  []uint16
	}{
		{"caps only", []uint16{2, 0, 0}, []uint16{0, 2}},
		{"caps and numlock", []uint16{2, 16, 0}, []uint16{0, 2, 16, 18}},
		{"duplicate masks collapse", []uint16{2, 2, 16}, []uint16{0, 2, 16, 18}},
		{"all three", []uint16{2, 16, 128}, []uint16{0, 2, 16, 18, 128, 130, 144, 146}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ignoreMasks(tt.locks...); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ignoreMasks(%v) = %v, want %v", tt.locks, got, tt.want)
			}
		})
	}
}

type plainHost struct{}

func (plainHost) EventLoop()  {}
func (plainHost) Disconnect() {}

func TestNewHandler_RequiresX11Host(t *testing.T) {
	if _, err := NewHandler(plainHost{}); err == nil {
		t.Fatal("expected error for non-X11 host")
	}
}
