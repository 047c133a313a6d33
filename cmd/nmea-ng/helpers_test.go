package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nmea-ng/internal/nmea"
)

const (
	testGGA  = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	testZDA  = "$GPZDA,201530.00,04,07,2002,00,00*60"
	testGSV1 = "$GPGSV,3,1,10,23,38,230,44,29,71,156,47,07,29,116,41*42"
	testGSV2 = "$GPGSV,3,2,10,08,54,069,45,10,31,197,44,18,12,321,38*43"
	testGSV3 = "$GPGSV,3,3,10,21,12,051,29,26,04,330,,27,06,286,37,16,22,097,33*75"
)

func nmeaLine(payload string) string {
	return fmt.Sprintf("$%s*%02X", payload, nmea.Checksum(payload))
}

func writeTemp(t *testing.T, name string, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

// execute runs the root command the way main does and returns what it wrote.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errb bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errb.String(), err
}
