package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"pickme/internal/animator"
	"pickme/internal/history"
	"pickme/internal/models"
	"pickme/internal/services"
	"pickme/internal/state"
)

const (
	placeholder = "--"
	nameWidth   = 16
)

// Renderer prints the full session view: stats, students, cooling list,
// selection and grouped history.
type Renderer struct {
	out       io.Writer
	view      state.ViewInterface
	selection animator.SelectionReader
	prefs     *services.Preferences
	loc       *time.Location
	now       func() time.Time
}

func NewRenderer(out io.Writer, view state.ViewInterface, selection animator.SelectionReader, prefs *services.Preferences, loc *time.Location) *Renderer {
	return &Renderer{
		out:       out,
		view:      view,
		selection: selection,
		prefs:     prefs,
		loc:       loc,
		now:       time.Now,
	}
}

func (r *Renderer) Render() {
	var b strings.Builder
	r.write(&b)
	_, _ = io.WriteString(r.out, b.String())
}

func (r *Renderer) write(b *strings.Builder) {
	snap := r.view.Snapshot()
	now := r.now()
	highlight := r.prefs.TakeHighlight()

	r.header(b, snap)
	r.students(b, snap)
	r.cooling(b, snap)
	r.selectionCard(b, snap)
	r.history(b, snap, now, highlight)
}

func (r *Renderer) header(b *strings.Builder, snap *state.Snapshot) {
	name := snap.State.CurrentClassName
	if name == "" {
		name = models.DefaultClassName
	}
	total, cooling, available := snap.Counts()
	ignore := "off"
	if r.prefs.IgnoreCooldown() {
		ignore = "on"
	}
	fmt.Fprintf(b, "\n== %s (%s) · cooldown %s ==\n", name, plural(total, "student"), plural(snap.State.Payload.CooldownDays, "day"))
	fmt.Fprintf(b, "Total %d · Cooling %d · Available %d · Ignore cooldown %s\n", total, cooling, available, ignore)
	if len(snap.State.Classes) > 1 {
		ids := make([]string, 0, len(snap.State.Classes))
		for _, c := range snap.State.Classes {
			marker := ""
			if c.ID == snap.State.CurrentClassID {
				marker = "*"
			}
			ids = append(ids, fmt.Sprintf("%s%s [%s]", marker, c.Name, c.ID))
		}
		fmt.Fprintf(b, "Classes: %s\n", strings.Join(ids, "  "))
	}
}

func (r *Renderer) students(b *strings.Builder, snap *state.Snapshot) {
	keyword := r.prefs.Search()
	if keyword != "" {
		fmt.Fprintf(b, "-- Students matching %q --\n", keyword)
	} else {
		b.WriteString("-- Students --\n")
	}
	list := snap.Search(keyword)
	if len(list) == 0 {
		b.WriteString("  no matching students\n")
		return
	}
	for _, st := range list {
		line := fmt.Sprintf("  %s %-8s G%-3d picked %dx", column(st.Name, nameWidth), st.ID, st.Group, st.PickCount)
		if st.IsCooling {
			line += "  cooling " + FormatDuration(st.RemainingCooldown)
		}
		b.WriteString(line + "\n")
	}
}

func (r *Renderer) cooling(b *strings.Builder, snap *state.Snapshot) {
	b.WriteString("-- Cooling --\n")
	list := snap.Cooling()
	if len(list) == 0 {
		b.WriteString("  no students are cooling\n")
		return
	}
	for _, st := range list {
		last := "no record"
		if st.LastPick > 0 {
			last = "last " + FormatTime(st.LastPick, r.loc)
		}
		fmt.Fprintf(b, "  %s G%-3d remaining %s · %s\n", column(st.Name, nameWidth), st.Group, FormatDuration(st.RemainingCooldown), last)
	}
}

func (r *Renderer) selectionCard(b *strings.Builder, snap *state.Snapshot) {
	b.WriteString("-- Selection --\n")
	title, note := DescribeSelection(r.selection.Selection())
	fmt.Fprintf(b, "  %s\n  %s\n", title, note)
}

// DescribeSelection returns the headline and the note line of the card.
func DescribeSelection(sel *models.Selection) (string, string) {
	if sel == nil {
		return placeholder, "waiting for a pick"
	}
	names := sel.Names()
	switch sel.Mode {
	case models.ModeBatch:
		title := placeholder
		if len(names) > 0 {
			title = strings.Join(names, ", ")
		}
		if n := len(sel.IDs); n > 0 {
			return title, "batch pick · " + plural(n, "student")
		}
		return title, "batch pick"
	case models.ModeGroup:
		title := "group pick"
		if sel.Group != nil {
			title = animator.GroupLabel(*sel.Group)
		}
		if len(names) == 0 {
			return title, "members moved to cooldown"
		}
		return title, strings.Join(names, ", ")
	}
	title := placeholder
	if len(names) > 0 {
		title = names[0]
	}
	if sel.Group != nil {
		return title, fmt.Sprintf("from group %d", *sel.Group)
	}
	return title, "random pick"
}

func (r *Renderer) history(b *strings.Builder, snap *state.Snapshot, now time.Time, highlight string) {
	b.WriteString("-- History --\n")
	days := history.Group(snap.State.Payload.History.Entries, now, r.loc)
	if len(days) == 0 {
		b.WriteString("  no picks yet\n")
		return
	}
	for _, day := range days {
		fmt.Fprintf(b, "  %s\n", day.Label)
		for _, e := range day.Entries {
			r.entry(b, e, now, highlight, "    ")
		}
		for _, p := range day.Periods {
			fmt.Fprintf(b, "    %s\n", p.Label)
			for _, e := range p.Entries {
				r.entry(b, e, now, highlight, "      ")
			}
		}
	}
}

func (r *Renderer) entry(b *strings.Builder, e models.HistoryEntry, now time.Time, highlight, indent string) {
	marker := "·"
	if e.ID == highlight {
		marker = ">"
	}
	tags := []string{shortTime(e.Timestamp, r.loc) + " · " + FormatSince(e.Timestamp, now)}
	if e.Mode == models.ModeGroup && e.Group != nil {
		tags = append(tags, animator.GroupLabel(*e.Group))
	}
	if e.Mode == models.ModeBatch {
		count := e.Count
		if count <= 0 {
			count = len(e.Students)
		}
		tags = append(tags, plural(count, "student"))
	}
	if e.IgnoreCooldown {
		tags = append(tags, "ignored cooldown")
	}
	fmt.Fprintf(b, "%s%s %s: %s  [%s] (%s)\n", indent, marker, modeLabel(e.Mode), entryNames(e), strings.Join(tags, " | "), e.ID)
	if e.Note != "" {
		fmt.Fprintf(b, "%s  note: %s\n", indent, e.Note)
	}
}
