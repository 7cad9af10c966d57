package directory

// SearchStream is a lazy, finite sequence of search results.
//
// A stream is not restartable. Callers either drain it until Next returns
// false and then check Err, or stop early with Abort. A mid-stream protocol
// error terminates the sequence and is reported through Err.
type SearchStream struct {
	fetch func() (*Entry, error)
	abort func()

	current *Entry
	err     error
	done    bool
}

// newSearchStream builds a stream from a fetch function returning the next
// entry, (nil, nil) at end of results, or an error, and an abort function
// releasing whatever the producer holds.
func newSearchStream(fetch func() (*Entry, error), abort func()) *SearchStream {
	if abort == nil {
		abort = func() {}
	}

	return &SearchStream{fetch: fetch, abort: abort}
}

// Next advances the stream. It returns false at end of results or on error;
// the caller distinguishes the two via Err.
func (s *SearchStream) Next() bool {
	if s.done {
		return false
	}

	entry, err := s.fetch()
	if err != nil {
		s.err = err
		s.finish()

		return false
	}

	if entry == nil {
		s.finish()

		return false
	}

	s.current = entry

	return true
}

// Entry returns the entry produced by the last successful Next call.
func (s *SearchStream) Entry() *Entry {
	return s.current
}

// Err returns the terminal error of the stream, if any.
func (s *SearchStream) Err() error {
	return s.err
}

// Abort stops the stream early and releases producer resources.
// Safe to call multiple times and after the stream is exhausted.
func (s *SearchStream) Abort() {
	s.finish()
}

func (s *SearchStream) finish() {
	if !s.done {
		s.done = true
		s.abort()
	}
}

// Collect drains the stream and returns all entries. On error the stream is
// aborted and the entries read so far are discarded.
func Collect(s *SearchStream) ([]*Entry, error) {
	var out []*Entry

	for s.Next() {
		out = append(out, s.Entry())
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// CollectOne drains the stream expecting exactly one entry.
// It returns ErrEntryNotFound for zero results and ErrMultipleEntries when
// more than one entry matched.
func CollectOne(s *SearchStream) (*Entry, error) {
	entries, err := Collect(s)
	if err != nil {
		return nil, err
	}

	switch len(entries) {
	case 0:
		return nil, ErrEntryNotFound
	case 1:
		return entries[0], nil
	default:
		return nil, ErrMultipleEntries
	}
}
