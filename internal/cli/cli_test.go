package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func run(ctx context.Context, stdin string, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Execute(ctx, args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestListCommand(t *testing.T) {
	code, out, errOut := run(context.Background(), "",
		"ls", "--driver", "loopback", "--loopback-port", "IAC Bus 1", "--loopback-port", "Synth")
	if code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, errOut)
	}
	want := "input #1: \"IAC Bus 1\"\ninput #2: \"Synth\"\noutput #1: \"IAC Bus 1\"\noutput #2: \"Synth\"\n"
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestWriteCommand(t *testing.T) {
	code, out, errOut := run(context.Background(), "90 3c 7f\n80 3c 40\n",
		"w", "Synth", "--driver", "loopback", "--loopback-port", "Synth")
	if code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, errOut)
	}
	if out != "" {
		t.Errorf("unexpected stdout %q", out)
	}
}

func TestWriteCommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"missing port", "", []string{"w", "Other", "--driver", "loopback"}, `output port "Other" not found`},
		{"parse error", "90 3c 7f\nxyz\n", []string{"w", "midihex loopback", "--driver", "loopback"}, `parse error: token "xyz"`},
		{"missing argument", "", []string{"r", "--driver", "loopback"}, "accepts 1 arg"},
		{"unknown driver", "", []string{"ls", "--driver", "jack"}, "unknown driver"},
		{"bad log level", "", []string{"ls", "--driver", "loopback", "--log-level", "loud"}, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := run(context.Background(), tt.stdin, tt.args...)
			if code == 0 {
				t.Fatal("expected non-zero exit code")
			}
			if !strings.Contains(errOut, "Error: ") || !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.want)
			}
		})
	}
}

func TestReadCommandStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, out, errOut := run(ctx, "", "r", "midihex loopback", "--driver", "loopback", "--show-ts", "--show-size")
	if code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, errOut)
	}
	if out != "" {
		t.Errorf("unexpected stdout %q", out)
	}
}

func TestReadWriteCommandEchoes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	code, out, errOut := run(ctx, "90 3c 7f\nF0 7E 7F F7\n",
		"rw", "loop", "loop", "--driver", "loopback", "--loopback-port", "loop", "--show-size")
	if code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, errOut)
	}
	if want := "3 90 3c 7f\n4 f0 7e 7f f7\n"; out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}
}

func TestLogFile(t *testing.T) {
	path := t.TempDir() + "/midihex.log"
	code, _, errOut := run(context.Background(), "",
		"ls", "--driver", "loopback", "--log-level", "debug", "--log-file", path)
	if code != 0 {
		t.Fatalf("exit code %d, stderr %q", code, errOut)
	}
	if strings.Contains(errOut, "ports listed") {
		t.Errorf("debug entries went to stderr: %q", errOut)
	}
}
