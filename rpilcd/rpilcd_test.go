// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rpilcd

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"

	"github.com/GermanBionicSystems/pidevices/hd44780"
	"github.com/GermanBionicSystems/pidevices/hd44780/hd44780test"
	"github.com/GermanBionicSystems/pidevices/lcdsim"
)

var cmpState = cmp.AllowUnexported(Line{})

func newRecorded(t *testing.T) (*Dev, *hd44780test.Record) {
	rec := &hd44780test.Record{}
	d, err := New(hd44780.New(rec, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	return d, rec
}

func newEmulated(t *testing.T) (*Dev, *lcdsim.Emulator) {
	e := lcdsim.NewEmulator()
	d, err := New(hd44780.New(e, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	return d, e
}

// write sends requests and fails on any error.
func write(t *testing.T, d *Dev, reqs ...[]byte) {
	t.Helper()
	for _, r := range reqs {
		n, err := d.Write(r)
		if err != nil {
			t.Fatalf("Write(%q) failed: %v", r, err)
		}
		if n != len(r) {
			t.Fatalf("Write(%q) = %d, expected %d", r, n, len(r))
		}
	}
}

func text(s string) []byte {
	return []byte(s)
}

func checkInvariants(t *testing.T, d *Dev) {
	t.Helper()
	if err := d.State().Check(); err != nil {
		t.Fatalf("%v: %s", err, d.State())
	}
	for row := 1; row <= Rows; row++ {
		if l := d.State().Len(row); l > Width {
			t.Fatalf("line %d holds %d characters", row, l)
		}
	}
}

func TestNew(t *testing.T) {
	rec := &hd44780test.Record{}
	d, err := New(hd44780.New(rec, nil), nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d.State(), Home(), cmpState); diff != "" {
		t.Errorf("State() difference (-got +want):\n%s", diff)
	}
	ops := rec.Bytes()
	tail := []hd44780test.IO{hd44780test.Cmd(0x0e), hd44780test.Cmd(0x01), hd44780test.Cmd(0x80)}
	if len(ops) < len(tail) {
		t.Fatalf("too few ops:\n%s", hd44780test.Dump(rec.Ops))
	}
	if diff := cmp.Diff(ops[len(ops)-len(tail):], tail); diff != "" {
		t.Errorf("New() difference (-got +want):\n%s", diff)
	}

	rec = &hd44780test.Record{}
	if _, err = New(hd44780.New(rec, nil), &Opts{SkipInit: true}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rec.Ops, []hd44780test.IO{hd44780test.Cmd(0x01), hd44780test.Cmd(0x80)}); diff != "" {
		t.Errorf("New(SkipInit) difference (-got +want):\n%s", diff)
	}

	rec = &hd44780test.Record{Err: errors.New("bus")}
	if _, err = New(hd44780.New(rec, nil), nil); err == nil {
		t.Error("New() expected error")
	}
}

func TestEscapes(t *testing.T) {
	for _, tc := range []struct {
		name  string
		start State
		esc   Escape
		want  State
		o     hd44780.Outcome
	}{
		{
			name:  "newline from row 1 goes to end of row 2",
			start: State{Row: 1, Col: 17, Line1: NewLine("0123456789abcdef"), Line2: NewLine("xyz")},
			esc:   Newline,
			want:  State{Row: 2, Col: 4, Line1: NewLine("0123456789abcdef"), Line2: NewLine("xyz")},
			o:     hd44780.Applied,
		},
		{
			name:  "newline on row 2",
			start: State{Row: 2, Col: 2, Line2: NewLine("a")},
			esc:   Newline,
			want:  State{Row: 2, Col: 2, Line2: NewLine("a")},
			o:     hd44780.Ignored,
		},
		{
			name:  "prevline from row 2 goes to end of row 1",
			start: State{Row: 2, Col: 1, Line1: NewLine("abc")},
			esc:   PrevLine,
			want:  State{Row: 1, Col: 4, Line1: NewLine("abc")},
			o:     hd44780.Applied,
		},
		{
			name:  "prevline on row 1",
			start: State{Row: 1, Col: 1},
			esc:   PrevLine,
			want:  State{Row: 1, Col: 1},
			o:     hd44780.Ignored,
		},
		{
			name:  "right",
			start: State{Row: 2, Col: 1, Line2: NewLine("ab")},
			esc:   Right,
			want:  State{Row: 2, Col: 2, Line2: NewLine("ab")},
			o:     hd44780.Applied,
		},
		{
			name:  "right at end of line",
			start: State{Row: 1, Col: 3, Line1: NewLine("ab")},
			esc:   Right,
			want:  State{Row: 1, Col: 3, Line1: NewLine("ab")},
			o:     hd44780.Ignored,
		},
		{
			name:  "right uses the current row length",
			start: State{Row: 1, Col: 2, Line1: NewLine("a"), Line2: NewLine("abcdef")},
			esc:   Right,
			want:  State{Row: 1, Col: 2, Line1: NewLine("a"), Line2: NewLine("abcdef")},
			o:     hd44780.Ignored,
		},
		{
			name:  "left",
			start: State{Row: 1, Col: 3, Line1: NewLine("ab")},
			esc:   Left,
			want:  State{Row: 1, Col: 2, Line1: NewLine("ab")},
			o:     hd44780.Applied,
		},
		{
			name:  "left at column 1",
			start: State{Row: 2, Col: 1, Line2: NewLine("ab")},
			esc:   Left,
			want:  State{Row: 2, Col: 1, Line2: NewLine("ab")},
			o:     hd44780.Ignored,
		},
		{
			name:  "delete inside line keeps the cursor",
			start: State{Row: 1, Col: 4, Line1: NewLine("ABCDE")},
			esc:   Delete,
			want:  State{Row: 1, Col: 4, Line1: NewLine("ABDE")},
			o:     hd44780.Applied,
		},
		{
			name:  "delete at end of line moves the cursor",
			start: State{Row: 2, Col: 6, Line2: NewLine("ABCDE")},
			esc:   Delete,
			want:  State{Row: 2, Col: 5, Line2: NewLine("ABCD")},
			o:     hd44780.Applied,
		},
		{
			name:  "delete at column 1 blanks only the current line",
			start: State{Row: 2, Col: 1, Line1: NewLine("keep"), Line2: NewLine("gone")},
			esc:   Delete,
			want:  State{Row: 2, Col: 1, Line1: NewLine("keep")},
			o:     hd44780.Applied,
		},
		{
			name:  "delete on empty line",
			start: State{Row: 1, Col: 1},
			esc:   Delete,
			want:  State{Row: 1, Col: 1},
			o:     hd44780.Ignored,
		},
		{
			name:  "clear",
			start: State{Row: 2, Col: 3, Line1: NewLine("a"), Line2: NewLine("bc")},
			esc:   Clear,
			want:  Home(),
			o:     hd44780.Applied,
		},
		{
			name:  "clear when already clear",
			start: Home(),
			esc:   Clear,
			want:  Home(),
			o:     hd44780.Ignored,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := newRecorded(t)
			d.state = tc.start
			o, err := d.Apply(tc.esc)
			if err != nil {
				t.Fatal(err)
			}
			if o != tc.o {
				t.Errorf("Apply(%s) = %s, expected %s", tc.esc, o, tc.o)
			}
			if diff := cmp.Diff(d.State(), tc.want, cmpState); diff != "" {
				t.Errorf("State() difference (-got +want):\n%s", diff)
			}
			checkInvariants(t, d)
		})
	}
}

func TestWriteEscapeRequest(t *testing.T) {
	d, _ := newRecorded(t)
	write(t, d, text("abc"), []byte("\\l\n"), []byte("\\l\x00"), []byte("\\lX"))
	if got := d.State().Col; got != 1 {
		t.Errorf("Col = %d, expected 1", got)
	}
	// Same letters in a request of another length are text.
	write(t, d, []byte("\\l"))
	if got := d.State().Line1.String(); got != "\\l" {
		t.Errorf("Line1 = %q", got)
	}
	// Unknown code is text.
	write(t, d, Clear.Request(), []byte("\\x\n"))
	if got := d.State().Line1.String(); got != "\\x\n" {
		t.Errorf("Line1 = %q", got)
	}
}

func TestWriteText(t *testing.T) {
	for _, tc := range []struct {
		name  string
		start State
		req   string
		want  State
	}{
		{
			name:  "scenario A",
			start: Home(),
			req:   "Wil: 20,Temp: 5",
			want:  State{Row: 1, Col: 16, Line1: NewLine("Wil: 20,Temp: 5")},
		},
		{
			name:  "full line leaves the cursor past the end",
			start: Home(),
			req:   "0123456789abcdef",
			want:  State{Row: 1, Col: 17, Line1: NewLine("0123456789abcdef")},
		},
		{
			name:  "scenario D wraps onto line 2",
			start: State{Row: 1, Col: 1, Line2: NewLine("old line two")},
			req:   "0123456789abcdefWXYZ",
			want:  State{Row: 2, Col: 4, Line1: NewLine("0123456789abcdef"), Line2: NewLine("WXYZ")},
		},
		{
			name:  "wrap from the middle of line 1",
			start: State{Row: 1, Col: 10, Line1: NewLine("Czas: 12:")},
			req:   "abcdefgh",
			want:  State{Row: 2, Col: 1, Line1: NewLine("Czas: 12:abcdefg"), Line2: NewLine("h")},
		},
		{
			name:  "longer than two lines is cut",
			start: Home(),
			req:   strings.Repeat("x", 40),
			want:  State{Row: 2, Col: 16, Line1: NewLine(strings.Repeat("x", 16)), Line2: NewLine(strings.Repeat("x", 16))},
		},
		{
			name:  "overwrite replaces the rest of the line",
			start: State{Row: 1, Col: 3, Line1: NewLine("abcdef")},
			req:   "XY",
			want:  State{Row: 1, Col: 5, Line1: NewLine("abXY")},
		},
		{
			name:  "row 2 drops overflow",
			start: State{Row: 2, Col: 13, Line1: NewLine("top"), Line2: NewLine("0123456789ab")},
			req:   "CDEFGH",
			want:  State{Row: 2, Col: 17, Line1: NewLine("top"), Line2: NewLine("0123456789abCDEF")},
		},
		{
			name:  "row 2 full",
			start: State{Row: 2, Col: 17, Line2: NewLine("0123456789abcdef")},
			req:   "zz",
			want:  State{Row: 2, Col: 17, Line2: NewLine("0123456789abcdef")},
		},
		{
			name:  "text stops at NUL",
			start: Home(),
			req:   "ab\x00cd",
			want:  State{Row: 1, Col: 3, Line1: NewLine("ab")},
		},
		{
			name:  "empty request",
			start: State{Row: 1, Col: 2, Line1: NewLine("abc")},
			req:   "",
			want:  State{Row: 1, Col: 2, Line1: NewLine("abc")},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := newRecorded(t)
			d.state = tc.start
			write(t, d, text(tc.req))
			if diff := cmp.Diff(d.State(), tc.want, cmpState); diff != "" {
				t.Errorf("State() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	d, _ := newRecorded(t)
	write(t, d, text("Hello"))
	before := d.State()
	for range 5 {
		write(t, d, Left.Request())
	}
	if got := d.State().Col; got != 1 {
		t.Errorf("Col after 5 left = %d", got)
	}
	for range 5 {
		write(t, d, Right.Request())
	}
	if diff := cmp.Diff(d.State(), before, cmpState); diff != "" {
		t.Errorf("State() difference (-got +want):\n%s", diff)
	}
	if d.State().Col != 6 {
		t.Errorf("Col = %d, expected 6", d.State().Col)
	}
}

func TestClearIdempotent(t *testing.T) {
	d, _ := newRecorded(t)
	write(t, d, text("something"), Newline.Request(), text("else"), Clear.Request())
	once := d.State()
	write(t, d, Clear.Request())
	if diff := cmp.Diff(d.State(), once, cmpState); diff != "" {
		t.Errorf("State() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(once, Home(), cmpState); diff != "" {
		t.Errorf("State() difference (-got +want):\n%s", diff)
	}
}

func TestScenarioB(t *testing.T) {
	d, _ := newRecorded(t)
	write(t, d, text("0123456789abcdef"))
	if s := d.State(); s.Row != 1 || s.Col != 17 {
		t.Fatalf("cursor (%d,%d), expected (1,17)", s.Row, s.Col)
	}
	write(t, d, Newline.Request(), text("hum"), PrevLine.Request(), Newline.Request())
	if s := d.State(); s.Row != 2 || s.Col != s.Len(2)+1 || s.Col != 4 {
		t.Errorf("cursor (%d,%d), expected (2,4)", s.Row, s.Col)
	}
}

func TestScenarioE(t *testing.T) {
	d, _ := newRecorded(t)
	write(t, d, text("only line 1"))
	before := d.State()
	c := d.c.(*hd44780.Controller)
	if err := c.PutString(""); !errors.Is(err, hd44780.ErrEmptyString) {
		t.Errorf("PutString(\"\") = %v", err)
	}
	if diff := cmp.Diff(d.State(), before, cmpState); diff != "" {
		t.Errorf("State() difference (-got +want):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	d, rec := newRecorded(t)
	write(t, d, text("Hi"))
	want := []hd44780test.IO{hd44780test.Cmd(0x01), hd44780test.Cmd(0x80)}
	want = append(want, hd44780test.Chars("Hi")...)
	want = append(want, hd44780test.Cmd(0xc0), hd44780test.Cmd(0x82))
	if diff := cmp.Diff(rec.Ops, want); diff != "" {
		t.Errorf("render difference (-got +want):\n%s", diff)
	}

	rec.Reset()
	write(t, d, text("0123456789abcd"), Newline.Request(), text("xy"), PrevLine.Request())
	rec.Reset()
	write(t, d, Right.Request())
	want = []hd44780test.IO{hd44780test.Cmd(0x01), hd44780test.Cmd(0x80)}
	want = append(want, hd44780test.Chars("Hi0123456789abcd")...)
	want = append(want, hd44780test.Cmd(0xc0))
	want = append(want, hd44780test.Chars("xy")...)
	// The cursor at column 17 is drawn on the last cell.
	want = append(want, hd44780test.Cmd(0x8f))
	if diff := cmp.Diff(rec.Ops, want); diff != "" {
		t.Errorf("render difference (-got +want):\n%s", diff)
	}
	if d.State().Col != 17 {
		t.Errorf("Col = %d, expected 17", d.State().Col)
	}
}

func TestRenderTiming(t *testing.T) {
	d, rec := newRecorded(t)
	write(t, d, text("abc"))
	// clear + 3 cursor moves are commands, 3 characters.
	want := 4*hd44780.SettleDelay(hd44780.Command) + 3*hd44780.SettleDelay(hd44780.Character)
	if rec.Elapsed != want {
		t.Errorf("Elapsed = %s, expected %s", rec.Elapsed, want)
	}
}

func TestRenderError(t *testing.T) {
	d, rec := newRecorded(t)
	rec.Err = errors.New("bus gone")
	n, err := d.Write(text("abc"))
	if n != 3 {
		t.Errorf("Write() = %d, expected 3", n)
	}
	if err == nil || !strings.Contains(err.Error(), "bus gone") {
		t.Errorf("Write() error = %v", err)
	}
	// The state is updated even though nothing reached the display.
	if got := d.State().Line1.String(); got != "abc" {
		t.Errorf("Line1 = %q", got)
	}
}

func TestEmulatedDisplay(t *testing.T) {
	d, e := newEmulated(t)
	write(t, d,
		Clear.Request(),
		text("Czas: 12:34:56"),
		Newline.Request(),
		text("Wil: 40,Temp: 21"),
	)
	if diff := cmp.Diff(e.Text(), "Czas: 12:34:56\nWil: 40,Temp: 21"); diff != "" {
		t.Errorf("display difference (-got +want):\n%s\n%s", diff, e.Dump())
	}
	if row, col := e.Cursor(); row != 2 || col != 16 {
		t.Errorf("display cursor (%d,%d), expected (2,16)", row, col)
	}
	write(t, d, PrevLine.Request(), Delete.Request())
	if diff := cmp.Diff(e.Text(), "Czas: 12:34:5\nWil: 40,Temp: 21"); diff != "" {
		t.Errorf("display difference (-got +want):\n%s\n%s", diff, e.Dump())
	}
	if row, col := e.Cursor(); row != 1 || col != 14 {
		t.Errorf("display cursor (%d,%d), expected (1,14)", row, col)
	}
}

func TestWriteRequest(t *testing.T) {
	d, rec := newRecorded(t)
	n, err := d.WriteRequest(strings.NewReader("Hello world"), 5)
	if err != nil || n != 5 {
		t.Fatalf("WriteRequest() = %d, %v", n, err)
	}
	if got := d.State().Line1.String(); got != "Hello" {
		t.Errorf("Line1 = %q", got)
	}
	before := d.State()
	rec.Reset()
	n, err = d.WriteRequest(iotest.ErrReader(errors.New("fault")), 3)
	if !errors.Is(err, ErrTransport) || n != 0 {
		t.Errorf("WriteRequest() = %d, %v; expected ErrTransport", n, err)
	}
	if _, err = d.WriteRequest(strings.NewReader("ab"), 3); !errors.Is(err, ErrTransport) {
		t.Errorf("short read: %v", err)
	}
	if _, err = d.WriteRequest(strings.NewReader("ab"), -1); !errors.Is(err, ErrTransport) {
		t.Errorf("negative length: %v", err)
	}
	if diff := cmp.Diff(d.State(), before, cmpState); diff != "" {
		t.Errorf("State() difference (-got +want):\n%s", diff)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("transport error rendered:\n%s", hd44780test.Dump(rec.Ops))
	}
}

// TestInvariants drives a random mix of requests and checks the line and
// cursor bounds after each one.
func TestInvariants(t *testing.T) {
	d, e := newEmulated(t)
	r := rand.New(rand.NewSource(1))
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 :,"
	for i := range 2000 {
		var req []byte
		if r.Intn(2) == 0 {
			req = Escape(1 + r.Intn(int(Clear))).Request()
		} else {
			req = make([]byte, r.Intn(24))
			for j := range req {
				req[j] = alphabet[r.Intn(len(alphabet))]
			}
		}
		write(t, d, req)
		checkInvariants(t, d)
		s := d.State()
		for row := 1; row <= Rows; row++ {
			want := s.Line(row).String()
			if got := strings.TrimRight(e.Line(row), " "); got != strings.TrimRight(want, " ") {
				t.Fatalf("step %d %q: line %d shows %q, state holds %q", i, req, row, got, want)
			}
		}
		if row, col := e.Cursor(); row != s.Row || col != min(s.Col, Width) {
			t.Fatalf("step %d: display cursor (%d,%d), state %s", i, row, col, s)
		}
	}
}

func TestString(t *testing.T) {
	d, _ := newRecorded(t)
	write(t, d, text("x"))
	if got, want := d.String(), `rpilcd{(1,2) "x" ""}`; got != want {
		t.Errorf("String() = %q, expected %q", got, want)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
}
