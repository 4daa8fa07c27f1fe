package notes

// Note is one sounding key.
type Note struct {
	Channel  int
	ID       int
	Velocity float64 // 0..1
	Source   string  // originating controller, "" if none
}

// Ident is the identity of a note in a Set.
type Ident struct {
	Channel int
	ID      int
}

// Ident returns the note's (channel, key) identity.
func (n Note) Ident() Ident {
	return Ident{Channel: n.Channel, ID: n.ID}
}

// Set is an insertion-ordered collection of notes, unique per (channel, key).
// Methods never modify the receiver, so a Set can be kept as a snapshot.
type Set []Note

// Of builds a Set from notes; later duplicates overwrite earlier ones.
func Of(ns ...Note) Set {
	var s Set
	for _, n := range ns {
		s = s.Put(n)
	}
	return s
}

// Index returns the position of the note with identity id, or -1.
func (s Set) Index(id Ident) int {
	for i, n := range s {
		if n.Ident() == id {
			return i
		}
	}
	return -1
}

// Has reports whether a note with identity id is present.
func (s Set) Has(id Ident) bool {
	return s.Index(id) >= 0
}

// Get returns the note with identity id.
func (s Set) Get(id Ident) (Note, bool) {
	if i := s.Index(id); i >= 0 {
		return s[i], true
	}
	return Note{}, false
}

// Put adds n at the end, or overwrites the note with the same identity in place.
func (s Set) Put(n Note) Set {
	out := s.clone(1)
	if i := out.Index(n.Ident()); i >= 0 {
		out[i] = n
		return out
	}
	return append(out, n)
}

// Without returns the notes for which drop is false.
func (s Set) Without(drop func(Note) bool) Set {
	out := make(Set, 0, len(s))
	for _, n := range s {
		if !drop(n) {
			out = append(out, n)
		}
	}
	return out
}

// Channel returns the notes playing on channel ch.
func (s Set) Channel(ch int) Set {
	return s.Without(func(n Note) bool { return n.Channel != ch })
}

// Key returns the notes playing key id on any channel.
func (s Set) Key(id int) Set {
	return s.Without(func(n Note) bool { return n.ID != id })
}

func (s Set) clone(extra int) Set {
	out := make(Set, len(s), len(s)+extra)
	copy(out, s)
	return out
}
