package crud

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// State enumerates the lifecycle positions of an entity under a Controller.
type State int

const (
	// StateNew is a client-constructed entity that has never been persisted.
	StateNew State = iota
	// StateViewing is a persisted entity with no edits in progress.
	StateViewing
	// StateEditing is a persisted entity with in-progress edits.
	StateEditing
	// StateDeleted is an entity removed through Delete.
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrBusy is returned when a mutation is attempted while another is pending.
	ErrBusy = errors.New("crud: another operation is in progress")
	// ErrUnsupported is returned when the callback for an operation was not supplied.
	ErrUnsupported = errors.New("crud: operation not supported")
	// ErrWrongState is returned when an operation does not apply to the current state.
	ErrWrongState = errors.New("crud: operation not allowed in current state")
)

// ValidationError carries field-scoped messages that blocked a save.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Options wires a Controller to its entity semantics and persistence calls.
// Any of the mutation callbacks may be nil, which disables that operation.
type Options[T any] struct {
	// IsNew reports whether item has not been persisted yet.
	IsNew func(item T) bool
	// Validate returns field -> message; an empty map means valid.
	Validate func(item T) map[string]string

	CreateItem func(ctx context.Context, item T) (T, error)
	// UpdateItem receives the edited item and the top-level fields that
	// differ from the committed value.
	UpdateItem func(ctx context.Context, item T, changes map[string]any) (T, error)
	DeleteItem func(ctx context.Context, item T) error

	// OnDelete runs after a successful delete, typically to navigate away.
	OnDelete func()
	// OnItemCUD refreshes whatever list backs the entity after any mutation.
	OnItemCUD func(ctx context.Context) error
}

// Outcome reports what a successful Save did. Navigate asks the caller to
// move to Item's own location, which happens after a create.
type Outcome[T any] struct {
	Item     T
	Created  bool
	Navigate bool
}

// Controller drives the new/viewing/editing/deleted lifecycle of one entity.
// It holds the last committed value and the value being edited.
type Controller[T any] struct {
	opts Options[T]

	mu        sync.Mutex
	state     State
	committed T
	edited    T
	dirty     bool
	busy      bool
}

// New creates a controller for item.
func New[T any](item T, opts Options[T]) *Controller[T] {
	state := StateViewing
	if opts.IsNew != nil && opts.IsNew(item) {
		state = StateNew
	}
	return &Controller[T]{
		opts:      opts,
		state:     state,
		committed: item,
		edited:    item,
	}
}

// State returns the current lifecycle state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Item returns the value as currently edited.
func (c *Controller[T]) Item() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.edited
}

// Committed returns the last value known to be persisted (or the initial
// value for new entities).
func (c *Controller[T]) Committed() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Dirty reports whether edits are pending.
func (c *Controller[T]) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Errors runs the validator against the edited value without saving.
func (c *Controller[T]) Errors() map[string]string {
	c.mu.Lock()
	item := c.edited
	c.mu.Unlock()
	return c.validate(item)
}

// Edit switches a persisted entity into editing.
func (c *Controller[T]) Edit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateViewing:
		c.state = StateEditing
		return nil
	case StateEditing, StateNew:
		return nil
	default:
		return ErrWrongState
	}
}

// SetField applies a change to the edited value. Editing a viewed entity
// moves it into StateEditing.
func (c *Controller[T]) SetField(apply func(item T) T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateDeleted {
		return ErrWrongState
	}
	c.edited = apply(c.edited)
	c.dirty = true
	if c.state == StateViewing {
		c.state = StateEditing
	}
	return nil
}

// Cancel discards in-progress edits and reverts to the committed value.
func (c *Controller[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.edited = c.committed
	c.dirty = false
	if c.state == StateEditing {
		c.state = StateViewing
	}
}

// Save validates the edited value and creates or updates it. Validation
// failures return *ValidationError and make no callback. On a callback error
// the controller keeps its pre-attempt state.
func (c *Controller[T]) Save(ctx context.Context) (Outcome[T], error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return Outcome[T]{}, ErrBusy
	}
	state := c.state
	item := c.edited
	committed := c.committed
	if state == StateDeleted {
		c.mu.Unlock()
		return Outcome[T]{}, ErrWrongState
	}
	c.mu.Unlock()

	if errs := c.validate(item); len(errs) > 0 {
		return Outcome[T]{}, &ValidationError{Fields: errs}
	}

	var outcome Outcome[T]
	switch state {
	case StateNew:
		if c.opts.CreateItem == nil {
			return Outcome[T]{}, ErrUnsupported
		}
		if !c.begin() {
			return Outcome[T]{}, ErrBusy
		}
		created, err := c.opts.CreateItem(ctx, item)
		if err != nil {
			c.end()
			return Outcome[T]{}, err
		}
		outcome = Outcome[T]{Item: created, Created: true, Navigate: true}
	default:
		if c.opts.UpdateItem == nil {
			return Outcome[T]{}, ErrUnsupported
		}
		changes, err := ChangedFields(committed, item)
		if err != nil {
			return Outcome[T]{}, err
		}
		if !c.begin() {
			return Outcome[T]{}, ErrBusy
		}
		updated, err := c.opts.UpdateItem(ctx, item, changes)
		if err != nil {
			c.end()
			return Outcome[T]{}, err
		}
		outcome = Outcome[T]{Item: updated}
	}

	c.mu.Lock()
	c.committed = outcome.Item
	c.edited = outcome.Item
	c.dirty = false
	c.state = StateViewing
	c.busy = false
	c.mu.Unlock()

	if err := c.refresh(ctx); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Delete removes a persisted entity, then runs OnDelete and the refresh hook.
func (c *Controller[T]) Delete(ctx context.Context) error {
	c.mu.Lock()
	state := c.state
	item := c.committed
	c.mu.Unlock()

	if state == StateNew || state == StateDeleted {
		return ErrWrongState
	}
	if c.opts.DeleteItem == nil {
		return ErrUnsupported
	}
	if !c.begin() {
		return ErrBusy
	}
	if err := c.opts.DeleteItem(ctx, item); err != nil {
		c.end()
		return err
	}

	c.mu.Lock()
	c.edited = c.committed
	c.dirty = false
	c.state = StateDeleted
	c.busy = false
	c.mu.Unlock()

	if c.opts.OnDelete != nil {
		c.opts.OnDelete()
	}
	return c.refresh(ctx)
}

func (c *Controller[T]) validate(item T) map[string]string {
	if c.opts.Validate == nil {
		return nil
	}
	return c.opts.Validate(item)
}

func (c *Controller[T]) refresh(ctx context.Context) error {
	if c.opts.OnItemCUD == nil {
		return nil
	}
	if err := c.opts.OnItemCUD(ctx); err != nil {
		return fmt.Errorf("crud: refresh: %w", err)
	}
	return nil
}

func (c *Controller[T]) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return false
	}
	c.busy = true
	return true
}

func (c *Controller[T]) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
