package directory

import (
	"sync"

	"github.com/NetConsole-Admin/NetConsole-Admin/internal/db/models"
)

// ModifyRecord captures one ModifyAttribute call against the Fake.
type ModifyRecord struct {
	DN        string
	Op        ModifyOp
	Attribute string
	Values    []string
	Outcome   ModifyOutcome
}

// Fake is a deterministic in-memory Client for tests. It holds attribute
// state per DN so duplicate adds and missing deletes produce the same benign
// outcomes a real directory would, and it records every call for assertions.
type Fake struct {
	mu sync.Mutex

	// DialErr, when set, makes Connector fail (directory unreachable).
	DialErr error
	// BindErr, when set, fails every bind with this error.
	BindErr error

	secrets   map[string]string
	entries   map[string][]*Entry
	searchErr map[string]error
	modifyErr map[string]error
	state     map[string]map[string][]string

	// Binds lists the DNs bind was attempted with, in order.
	Binds []string
	// Modifies lists all modify calls, in order.
	Modifies []ModifyRecord
	// Dials counts Connector invocations.
	Dials int
	// Closes counts Close invocations.
	Closes int
}

// NewFake returns an empty fake directory.
func NewFake() *Fake {
	return &Fake{
		secrets:   make(map[string]string),
		entries:   make(map[string][]*Entry),
		searchErr: make(map[string]error),
		modifyErr: make(map[string]error),
		state:     make(map[string]map[string][]string),
	}
}

// Connector returns a Connector handing out this fake.
func (f *Fake) Connector() Connector {
	return func(settings *models.DirectorySettings) (Client, error) {
		if settings == nil || !settings.Enabled {
			return nil, ErrDisabled
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		if f.DialErr != nil {
			return nil, f.DialErr
		}

		f.Dials++

		return f, nil
	}
}

// SetSecret registers a bindable principal.
func (f *Fake) SetSecret(dn, secret string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.secrets[dn] = secret
}

// AddSearchResult registers the entries returned for an exact filter string.
func (f *Fake) AddSearchResult(filter string, entries ...*Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries[filter] = append(f.entries[filter], entries...)
}

// FailSearch makes streams for the given filter terminate with err.
func (f *Fake) FailSearch(filter string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searchErr[filter] = err
}

// FailModify makes every modify against dn fail with err.
func (f *Fake) FailModify(dn string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.modifyErr[dn] = err
}

// SetAttribute seeds attribute state for a DN.
func (f *Fake) SetAttribute(dn, attribute string, values ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.attrState(dn)[attribute] = append([]string(nil), values...)
}

// AttributeValues returns a copy of the current values of an attribute.
func (f *Fake) AttributeValues(dn, attribute string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.attrState(dn)[attribute]...)
}

// AppliedModifies counts modify calls that actually changed state.
func (f *Fake) AppliedModifies() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, record := range f.Modifies {
		if record.Outcome == OutcomeApplied {
			n++
		}
	}

	return n
}

// Bind implements Client.
func (f *Fake) Bind(dn, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Binds = append(f.Binds, dn)

	if f.BindErr != nil {
		return f.BindErr
	}

	if stored, ok := f.secrets[dn]; !ok || stored != secret {
		return ErrInvalidCredentials
	}

	return nil
}

// Search implements Client. Entries are matched by exact filter string.
func (f *Fake) Search(_ string, filter string, _ Scope, _ []string) (*SearchStream, error) {
	f.mu.Lock()

	entries := append([]*Entry(nil), f.entries[filter]...)
	failWith := f.searchErr[filter]

	f.mu.Unlock()

	i := 0
	fetch := func() (*Entry, error) {
		if i < len(entries) {
			entry := entries[i]
			i++

			return entry, nil
		}

		if failWith != nil {
			return nil, failWith
		}

		return nil, nil
	}

	return newSearchStream(fetch, nil), nil
}

// ModifyAttribute implements Client with real add/delete/replace semantics
// over the fake's attribute state.
func (f *Fake) ModifyAttribute(dn string, op ModifyOp, attribute string, values ...string) (ModifyOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.modifyErr[dn]; err != nil {
		return OutcomeApplied, err
	}

	state := f.attrState(dn)
	outcome := OutcomeApplied

	switch op {
	case OpAdd:
		outcome = OutcomeAlreadyPresent

		for _, v := range values {
			if !contains(state[attribute], v) {
				state[attribute] = append(state[attribute], v)
				outcome = OutcomeApplied
			}
		}
	case OpDelete:
		outcome = OutcomeAlreadyAbsent

		for _, v := range values {
			if contains(state[attribute], v) {
				state[attribute] = remove(state[attribute], v)
				outcome = OutcomeApplied
			}
		}
	case OpReplace:
		state[attribute] = append([]string(nil), values...)
	}

	f.Modifies = append(f.Modifies, ModifyRecord{
		DN:        dn,
		Op:        op,
		Attribute: attribute,
		Values:    append([]string(nil), values...),
		Outcome:   outcome,
	})

	return outcome, nil
}

// SetPassword implements Client using the same encoding as the real client.
func (f *Fake) SetPassword(dn, newPassword string) error {
	_, err := f.ModifyAttribute(dn, OpReplace, passwordAttribute, string(EncodePassword(newPassword)))

	return err
}

// Close implements Client.
func (f *Fake) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closes++
}

func (f *Fake) attrState(dn string) map[string][]string {
	if f.state[dn] == nil {
		f.state[dn] = make(map[string][]string)
	}

	return f.state[dn]
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}

	return false
}

func remove(values []string, v string) []string {
	out := values[:0]

	for _, existing := range values {
		if existing != v {
			out = append(out, existing)
		}
	}

	return out
}
