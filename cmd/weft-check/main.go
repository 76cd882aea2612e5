// Command weft-check compiles markup files and reports what they declare,
// without rendering anything. It is the fast feedback loop for editing
// markup by hand: compile errors come back with their byte offset, and a
// clean file prints its page inventory.
//
//	weft-check ui.xml [more.xml ...]
//	weft-check -solve -w 120 -h 40 ui.xml
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"weft"
)

func main() {
	solveFlag := flag.Bool("solve", false, "also solve each page against empty data and report diagnostics")
	width := flag.Int("w", 0, "viewport width for -solve (default: terminal width)")
	height := flag.Int("h", 0, "viewport height for -solve (default: terminal height)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: weft-check [-solve] file.xml ...")
		os.Exit(2)
	}

	vw, vh := *width, *height
	if vw == 0 || vh == 0 {
		if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			if vw == 0 {
				vw = w
			}
			if vh == 0 {
				vh = h
			}
		} else {
			vw, vh = 80, 24
		}
	}

	failed := false
	for _, path := range flag.Args() {
		if err := check(path, *solveFlag, vw, vh); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func check(path string, solve bool, vw, vh int) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := weft.Compile(string(src))
	if err != nil {
		var ce *weft.CompileError
		if errors.As(err, &ce) && ce.Offset > 0 {
			line := 1 + countLines(src[:ce.Offset])
			return fmt.Errorf("line %d: %w", line, err)
		}
		return err
	}

	fmt.Printf("%s: ok, %d page(s)\n", path, len(doc.Pages()))
	for _, name := range doc.Pages() {
		fmt.Printf("  page %q\n", name)
		if !solve {
			continue
		}
		e := weft.New(weft.Options{Page: name})
		if err := e.Load(string(src)); err != nil {
			return err
		}
		f := e.Step(weft.Input{Viewport: weft.Size{W: float32(vw), H: float32(vh)}})
		fmt.Printf("    %d box(es) at %dx%d\n", len(f.Boxes), vw, vh)
		for _, d := range f.Diagnostics {
			fmt.Printf("    warning: %s\n", d)
		}
	}
	return nil
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
