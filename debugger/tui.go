package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the tcell/tview front end over a Debugger: a source panel tracking
// the BASIC line about to execute, side panels for variables and the
// FOR-loop stack, an output panel mirroring what the program has printed,
// and a command line accepting step, continue, break and delete.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	SourceView      *tview.TextView
	VariablesView   *tview.TextView
	ForStackView    *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField
}

// NewTUI builds the view tree around d without starting the event loop.
func NewTUI(d *Debugger) *TUI {
	t := &TUI{Debugger: d, App: tview.NewApplication()}
	t.initViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initViews() {
	t.SourceView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.VariablesView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.VariablesView.SetBorder(true).SetTitle(" Variables ")

	t.ForStackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.ForStackView.SetBorder(true).SetTitle(" FOR stack ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command (F11 step, F5 continue, ^C quit) ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.VariablesView, 0, 2, false).
		AddItem(t.ForStackView, 0, 1, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	content := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.SourceView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(content, 0, 3, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.App.SetRoot(layout, true).SetFocus(t.CommandInput)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF5:
			t.run("continue")
			return nil
		case tcell.KeyF11:
			t.run("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	t.CommandInput.SetText("")
	if cmd != "" {
		t.run(cmd)
	}
}

// run executes one debugger command line (step/s, continue/c, break/b with
// an optional line defaulting to the current one, delete/d with an ID) and
// refreshes every panel afterward. Other commands are ignored.
func (t *TUI) run(cmd string) {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return
	}
	switch strings.ToLower(fields[0]) {
	case "step", "s":
		if _, err := t.Debugger.StepLine(); err != nil {
			fmt.Fprintf(t.Debugger.Output, "runtime error: %v\n", err)
		}
	case "continue", "c":
		if _, hit, err := t.Debugger.Continue(); err != nil {
			fmt.Fprintf(t.Debugger.Output, "runtime error: %v\n", err)
		} else if hit {
			fmt.Fprintln(t.Debugger.Output, "breakpoint hit")
		}
	case "break", "b":
		line := t.Debugger.Machine.CurrentLine()
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				line = n
			}
		}
		bp := t.Debugger.Breakpoints.Add(line, false)
		fmt.Fprintf(t.Debugger.Output, "breakpoint %d at line %d\n", bp.ID, bp.Line)
	case "delete", "d":
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				if err := t.Debugger.Breakpoints.Delete(n); err != nil {
					fmt.Fprintln(t.Debugger.Output, err)
				}
			}
		}
	}
	t.refresh()
}

func (t *TUI) refresh() {
	line := t.Debugger.Machine.CurrentLine()
	var src strings.Builder
	for i := 0; i < len(t.Debugger.Source); i++ {
		text := t.Debugger.Source[i]
		trimmed := strings.TrimSpace(text)
		marker := "  "
		if strings.HasPrefix(trimmed, fmt.Sprintf("%d ", line)) || trimmed == fmt.Sprintf("%d", line) {
			marker = "->"
		}
		fmt.Fprintf(&src, "%s %s\n", marker, trimmed)
	}
	t.SourceView.SetText(src.String())

	t.VariablesView.SetText(strings.Join(t.Debugger.Variables(), "\n"))
	t.ForStackView.SetText(strings.Join(t.Debugger.ForFrames(), "\n"))

	var bps strings.Builder
	for _, bp := range t.Debugger.Breakpoints.All() {
		fmt.Fprintf(&bps, "%d: line %d (hits %d)\n", bp.ID, bp.Line, bp.HitCount)
	}
	t.BreakpointsView.SetText(bps.String())

	t.OutputView.SetText(strings.Join(t.Debugger.Output.Lines(), "\n"))
	t.OutputView.ScrollToEnd()

	if t.Debugger.Machine.Halted {
		fmt.Fprintln(t.Debugger.Output, "program halted.")
	}
}

// Run starts the TUI event loop.
func (t *TUI) Run() error {
	t.refresh()
	return t.App.Run()
}
