package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeExec) isLoggedIn() bool                          { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error            { return f.record("register") }
func (f *fakeExec) Login(context.Context) error               { f.loggedIn = true; return f.record("login") }
func (f *fakeExec) Logout(context.Context) error              { f.loggedIn = false; return f.record("logout") }
func (f *fakeExec) List(context.Context) error                { return f.record("list") }
func (f *fakeExec) New(_ context.Context, t string) error     { return f.record("new:" + t) }
func (f *fakeExec) Use(_ context.Context, id string) error    { return f.record("use:" + id) }
func (f *fakeExec) Show(context.Context) error                { return f.record("show") }
func (f *fakeExec) Stats(context.Context) error               { return f.record("stats") }
func (f *fakeExec) Delete(_ context.Context, id string) error { return f.record("delete:" + id) }
func (f *fakeExec) Ask(_ context.Context, m string) error     { return f.record("ask:" + m) }
func (f *fakeExec) Compose(context.Context) error             { return f.record("compose") }
func (f *fakeExec) Export(_ context.Context, format, path string) error {
	return f.record("export:" + format + ":" + path)
}
func (f *fakeExec) Archive(_ context.Context, format string) error {
	return f.record("archive:" + format)
}

func silence(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		printed = append(printed, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &printed
}

func TestRunREPL_Dispatch(t *testing.T) {
	silence(t)

	input := strings.Join([]string{
		"",
		"list",
		"login",
		"l",
		"new  My topic ",
		"use abc",
		"show",
		"stats",
		"ask what is   Go?",
		"compose",
		"export markdown out.md",
		"export",
		"archive csv",
		"delete abc",
		"logout",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr(input))

	assert.Equal(t, []string{
		"login",
		"list",
		"new:My topic",
		"use:abc",
		"show",
		"stats",
		"ask:what is   Go?",
		"compose",
		"export:markdown:out.md",
		"export::",
		"archive:csv",
		"delete:abc",
		"logout",
	}, exec.calls)
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	printed := silence(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("use\nask\nfoobar\nhelp\nquit\n"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *printed, "Usage: use <id>")
	assert.Contains(t, *printed, "Usage: ask <text>")
	assert.Contains(t, *printed, "Unknown command: foobar")
	assert.Contains(t, *printed, helpLoggedIn)
	assert.Contains(t, *printed, "Bye!")
}

func TestRunREPL_LoggedOutGate(t *testing.T) {
	printed := silence(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("help\nshow"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *printed, helpLoggedOut)
	assert.Contains(t, *printed, "Please login or register first")
}
