//go:build linux

package source

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestBaudToUnix(t *testing.T) {
	cases := map[int]uint32{
		4800:   unix.B4800,
		9600:   unix.B9600,
		115200: unix.B115200,
		921600: unix.B921600,
	}
	for baud, want := range cases {
		got, err := baudToUnix(baud)
		if err != nil {
			t.Fatalf("baudToUnix(%d): %v", baud, err)
		}
		if got != want {
			t.Fatalf("baudToUnix(%d)=%d want %d", baud, got, want)
		}
	}
	if _, err := baudToUnix(1234); err == nil {
		t.Fatalf("expected error for unsupported baud")
	}
}
