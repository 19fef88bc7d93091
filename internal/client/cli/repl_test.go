package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeExec struct {
	calls []string
	err   error
}

func (f *fakeExec) Info(ctx context.Context) error {
	f.calls = append(f.calls, "info")
	return f.err
}
func (f *fakeExec) Pseudonymize(ctx context.Context) error {
	f.calls = append(f.calls, "pseudonymize")
	return f.err
}
func (f *fakeExec) Reidentify(ctx context.Context) error {
	f.calls = append(f.calls, "reidentify")
	return f.err
}
func (f *fakeExec) Exists(ctx context.Context) error {
	f.calls = append(f.calls, "exists")
	return f.err
}
func (f *fakeExec) Delete(ctx context.Context) error {
	f.calls = append(f.calls, "delete")
	return f.err
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	orig := printlnFn
	printlnFn = func(args ...any) (int, error) {
		for _, a := range args {
			if s, ok := a.(string); ok {
				printed = append(printed, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &printed
}

func TestRunREPL_DispatchAndAliases(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"info",
		"p",
		"pseudonymize",
		"r",
		"exists",
		"delete",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	want := []string{"info", "pseudonymize", "pseudonymize", "reidentify", "exists", "delete"}
	if len(exec.calls) != len(want) {
		t.Fatalf("calls mismatch: got %v, want %v", exec.calls, want)
	}
	for i := range want {
		if exec.calls[i] != want[i] {
			t.Fatalf("calls mismatch at %d: got %v, want %v", i, exec.calls, want)
		}
	}
}

func TestRunREPL_ErrorsKeepLoopAlive(t *testing.T) {
	printed := silencePrintln(t)

	input := strings.NewReader("info\ninfo\nquit\n")
	exec := &fakeExec{err: errors.New("keyfile gone")}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 2 {
		t.Fatalf("expected both commands to run, got %v", exec.calls)
	}
	found := false
	for _, line := range *printed {
		if line == "Error:" || line == "keyfile gone" {
			found = true
		}
	}
	if !found {
		t.Fatalf("error was not reported: %v", *printed)
	}
}

func TestRunREPL_EOFExits(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader("")
	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "s" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
