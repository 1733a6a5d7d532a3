package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"pickme/internal/gateway"
	"pickme/internal/models"
	"pickme/internal/providers"
	"pickme/internal/render"
	"pickme/internal/services"
	"pickme/internal/state"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cast"
)

const helpText = `commands:
  pick | batch [N] | group         draw students
  ignore on|off                    ignore cooldown while picking
  cooldown N | clear-cooldown      cooldown days, release everyone
  add NAME [GROUP] [ID]            add a student
  edit ID NAME [GROUP] [NEWID]     update a student
  rm ID | cool ID | release ID     delete, force or release cooldown
  history-clear ID | history-rm ID TS
  class ID | class-add NAME | class-rm ID | class-order ID...
  note ENTRY TEXT | entry-rm ENTRY
  search [KW] | show | help | quit
`

// errUsage marks a command that could not be parsed.
var errUsage = errors.New("usage")

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }
func (u usageError) Unwrap() error { return errUsage }

// REPL reads one command per line and runs it against the session service.
type REPL struct {
	in        io.Reader
	out       io.Writer
	service   services.SessionServiceInterface
	view      state.ViewInterface
	scheduler render.SchedulerInterface
	logger    providers.Logger
	prompt    bool
}

func NewREPL(in io.Reader, out io.Writer, service services.SessionServiceInterface, view state.ViewInterface, scheduler render.SchedulerInterface, logger providers.Logger) *REPL {
	prompt := false
	if f, ok := in.(*os.File); ok {
		prompt = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &REPL{in: in, out: out, service: service, view: view, scheduler: scheduler, logger: logger, prompt: prompt}
}

// Run blocks until quit, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	r.scheduler.Immediate()
	for {
		r.showPrompt()
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if r.Execute(ctx, line) {
				return nil
			}
		}
	}
}

func (r *REPL) showPrompt() {
	if r.prompt {
		_, _ = io.WriteString(r.out, "> ")
	}
}

// Execute runs one line. It returns true when the session should end.
func (r *REPL) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	if cmd == "quit" || cmd == "exit" {
		return true
	}
	err := r.dispatch(ctx, cmd, args, line)
	r.report(cmd, err)
	return false
}

func (r *REPL) dispatch(ctx context.Context, cmd string, args []string, line string) error {
	s := r.service
	switch cmd {
	case "pick":
		return s.Pick(ctx, models.ModeSingle)
	case "group":
		return s.PickGroup(ctx)
	case "batch":
		if len(args) == 0 {
			return s.PickBatch(ctx, s.DefaultBatchCount())
		}
		n, err := wholeNumber(args[0])
		if err != nil {
			return usageError("batch [N]")
		}
		return s.PickBatch(ctx, n)
	case "ignore":
		if len(args) != 1 {
			return usageError("ignore on|off")
		}
		on, err := cast.ToBoolE(normalizeSwitch(args[0]))
		if err != nil {
			return usageError("ignore on|off")
		}
		s.SetIgnoreCooldown(on)
		return nil
	case "cooldown":
		if len(args) != 1 {
			return usageError("cooldown N")
		}
		days, err := cast.ToFloat64E(args[0])
		if err != nil {
			days = math.NaN()
		}
		return s.SetCooldown(ctx, days)
	case "clear-cooldown":
		return s.ClearCooldown(ctx)
	case "add":
		if len(args) < 1 || len(args) > 3 {
			return usageError("add NAME [GROUP] [ID]")
		}
		return s.CreateStudent(ctx, arg(args, 2), args[0], arg(args, 1))
	case "edit":
		if len(args) < 2 || len(args) > 4 {
			return usageError("edit ID NAME [GROUP] [NEWID]")
		}
		group := any(arg(args, 2))
		if len(args) < 3 {
			group = r.currentGroup(args[0])
		}
		return s.UpdateStudent(ctx, args[0], arg(args, 3), args[1], group)
	case "rm":
		return oneArg(args, "rm ID", func(id string) error { return s.DeleteStudent(ctx, id) })
	case "cool":
		return oneArg(args, "cool ID", func(id string) error { return s.ForceCooldown(ctx, id) })
	case "release":
		return oneArg(args, "release ID", func(id string) error { return s.ReleaseCooldown(ctx, id) })
	case "history-clear":
		return oneArg(args, "history-clear ID", func(id string) error { return s.ClearStudentHistory(ctx, id) })
	case "history-rm":
		if len(args) != 2 {
			return usageError("history-rm ID TS")
		}
		ts, err := cast.ToFloat64E(args[1])
		if err != nil {
			return usageError("history-rm ID TS")
		}
		return s.RemoveStudentHistory(ctx, args[0], ts)
	case "class":
		return oneArg(args, "class ID", func(id string) error { return s.SwitchClass(ctx, id) })
	case "class-add":
		if len(args) == 0 {
			return usageError("class-add NAME")
		}
		return s.CreateClass(ctx, rest(line, 1))
	case "class-rm":
		return oneArg(args, "class-rm ID", func(id string) error { return s.DeleteClass(ctx, id) })
	case "class-order":
		if len(args) == 0 {
			return usageError("class-order ID...")
		}
		return s.ReorderClasses(ctx, args)
	case "note":
		if len(args) == 0 {
			return usageError("note ENTRY TEXT")
		}
		return s.SetHistoryNote(ctx, args[0], rest(line, 2))
	case "entry-rm":
		return oneArg(args, "entry-rm ENTRY", func(id string) error { return s.DeleteHistoryEntry(ctx, id) })
	case "search":
		found := s.Search(rest(line, 1))
		fmt.Fprintf(r.out, "%s found\n", plural(len(found), "student"))
		return nil
	case "show":
		r.scheduler.Immediate()
		return nil
	case "help":
		_, _ = io.WriteString(r.out, helpText)
		return nil
	}
	return usageError(fmt.Sprintf("unknown command %q, try help", cmd))
}

// report prints what the service did not already surface.
func (r *REPL) report(cmd string, err error) {
	var usage usageError
	switch {
	case err == nil:
	case errors.As(err, &usage):
		fmt.Fprintln(r.out, usage.Error())
	case errors.Is(err, services.ErrBusy):
		fmt.Fprintln(r.out, "busy, wait for the current action to finish")
	case errors.Is(err, gateway.ErrAborted):
		r.logger.Debugf(providers.TypeAction, "%s was superseded", cmd)
	default:
		r.logger.Debugf(providers.TypeAction, "%s: %s", cmd, err)
	}
}

// currentGroup keeps a student's group when edit leaves it out.
func (r *REPL) currentGroup(id string) any {
	if st, ok := r.view.Snapshot().Student(id); ok {
		return st.Group
	}
	return 0
}

func oneArg(args []string, usage string, fn func(string) error) error {
	if len(args) != 1 {
		return usageError(usage)
	}
	return fn(args[0])
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// rest returns line with its first n words removed, inner spacing intact.
func rest(line string, n int) string {
	line = strings.TrimSpace(line)
	for i := 0; i < n && line != ""; i++ {
		idx := strings.IndexFunc(line, func(r rune) bool { return r == ' ' || r == '\t' })
		if idx < 0 {
			return ""
		}
		line = strings.TrimLeft(line[idx:], " \t")
	}
	return line
}

func wholeNumber(s string) (int, error) {
	f, err := cast.ToFloat64E(s)
	if err != nil || f != math.Trunc(f) {
		return 0, errUsage
	}
	return int(f), nil
}

func normalizeSwitch(s string) string {
	switch strings.ToLower(s) {
	case "on", "yes":
		return "true"
	case "off", "no":
		return "false"
	}
	return s
}
