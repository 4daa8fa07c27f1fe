package notes

// Event is emitted when a note starts or stops sounding.
type Event struct {
	ID       int
	Channel  int
	Velocity float64
	Source   string
}

func eventOf(n Note) Event {
	return Event{ID: n.ID, Channel: n.Channel, Velocity: n.Velocity, Source: n.Source}
}

// Diff is the result of reconciling two active-note sets.
type Diff struct {
	On  []Event // in next's order
	Off []Event // in prev's order, with the values prev held

	// Played is the new played state: retained notes (as prev stored them,
	// in next's order) followed by added ones.
	Played Set
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.On) == 0 && len(d.Off) == 0
}

// Reconcile diffs prev against next by (channel, key) identity. Every note
// that appears yields exactly one on-event and every note that disappears
// exactly one off-event; notes present in both yield nothing, even if their
// velocity or source changed.
func Reconcile(prev, next Set) Diff {
	var d Diff
	var added Set
	for _, n := range next {
		if old, ok := prev.Get(n.Ident()); ok {
			d.Played = append(d.Played, old)
			continue
		}
		if added.Has(n.Ident()) {
			continue
		}
		added = append(added, n)
		d.On = append(d.On, eventOf(n))
	}
	for _, n := range prev {
		if !next.Has(n.Ident()) {
			d.Off = append(d.Off, eventOf(n))
		}
	}
	d.Played = append(d.Played, added...)
	return d
}
