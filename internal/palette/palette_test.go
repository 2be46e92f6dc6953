package palette

import (
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"testing"
)

func stubLookPath(t *testing.T, available ...string) {
	t.Helper()
	orig := lookPathFn
	t.Cleanup(func() { lookPathFn = orig })
	lookPathFn = func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func stubRun(t *testing.T, out string, err error) *[]string {
	t.Helper()
	orig := runFn
	t.Cleanup(func() { runFn = orig })
	var seen []string
	runFn = func(name string, args []string, stdin string) (string, error) {
		seen = append(append([]string{name}, args...), stdin)
		return out, err
	}
	return &seen
}

var testItems = []Item{
	{Label: "Copy geometry", Action: "copy-geometry", Icon: "edit-copy"},
	{Label: "Save <image>", Action: "save-image"},
}

func TestDetectBackend(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		want      string
		wantErr   bool
	}{
		{"prefers rofi", []string{"dmenu", "rofi"}, "rofi", false},
		{"falls back", []string{"wofi", "dmenu"}, "wofi", false},
		{"none", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubLookPath(t, tt.available...)
			got, err := DetectBackend()
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Fatalf("DetectBackend() = %q, %v; want %q, err=%v", got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestNewBackend(t *testing.T) {
	stubLookPath(t, "fuzzel")
	if _, err := NewBackend("fuzzel"); err != nil {
		t.Fatalf("fuzzel: %v", err)
	}
	if _, err := NewBackend("rofi"); err == nil {
		t.Fatal("rofi not in PATH should fail")
	}
	if _, err := NewBackend("bemenu"); err == nil || !strings.Contains(err.Error(), "unknown") {
		t.Fatalf("unknown backend err = %v", err)
	}
	b, err := NewBackend("auto")
	if err != nil || b.(*launcher).kind != kindFuzzel {
		t.Fatalf("auto = %v, %v", b, err)
	}
}

func TestRofiShow_ParsesIndex(t *testing.T) {
	seen := stubRun(t, "1\n", nil)
	l := &launcher{command: "rofi", kind: kindRofi}

	got, err := l.Show("regionsel", testItems)
	if err != nil {
		t.Fatal(err)
	}
	if got.Action != "save-image" {
		t.Fatalf("action = %q", got.Action)
	}

	args := *seen
	stdin := args[len(args)-1]
	if !strings.Contains(stdin, "Copy geometry\x00icon\x1fedit-copy") {
		t.Fatalf("missing icon property in %q", stdin)
	}
	if !strings.Contains(stdin, "Save &lt;image&gt;") {
		t.Fatalf("label not escaped for markup: %q", stdin)
	}
	if !reflect.DeepEqual(args[1:5], []string{"-dmenu", "-i", "-format", "i"}) {
		t.Fatalf("args = %v", args)
	}
}

func TestDmenuShow_MatchesLabel(t *testing.T) {
	seen := stubRun(t, "Copy geometry\n", nil)
	l := &launcher{command: "dmenu", kind: kindDmenu}

	got, err := l.Show("pick", testItems)
	if err != nil || got.Action != "copy-geometry" {
		t.Fatalf("Show = %+v, %v", got, err)
	}
	stdin := (*seen)[len(*seen)-1]
	if strings.Contains(stdin, "\x00") || !strings.Contains(stdin, "Save <image>") {
		t.Fatalf("dmenu input should be plain text: %q", stdin)
	}
}

func TestShow_Errors(t *testing.T) {
	l := &launcher{command: "fuzzel", kind: kindFuzzel}

	stubRun(t, "", nil)
	if _, err := l.Show("", testItems); !errors.Is(err, ErrCancelled) {
		t.Fatalf("empty output err = %v, want ErrCancelled", err)
	}

	stubRun(t, "7", nil)
	if _, err := l.Show("", testItems); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("out of range err = %v", err)
	}

	stubRun(t, "", ErrCancelled)
	if _, err := l.Show("", testItems); !errors.Is(err, ErrCancelled) {
		t.Fatalf("cancel err = %v", err)
	}

	if _, err := l.Show("", nil); err == nil {
		t.Fatal("expected error for no items")
	}
}

func TestCleanField(t *testing.T) {
	if got := cleanField(" a\nb\x00c\x1fd\r "); got != "a b c d" {
		t.Fatalf("cleanField = %q", got)
	}
}
