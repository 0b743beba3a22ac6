package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"
)

var (
	// ErrInvalidTransition is returned when an event is not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrRecordNotFound is returned when a state change targets a missing record.
	ErrRecordNotFound = errors.New("record not found")
)

// Event names a lifecycle transition.
type Event string

const (
	EventClaim   Event = "claim"
	EventVerify  Event = "verify"
	EventFlag    Event = "flag"
	EventRelease Event = "release"
	EventRequeue Event = "requeue"
	EventReopen  Event = "reopen"
)

type lifecycleContext struct{}

type interpreterFactory func() *statekit.Interpreter[lifecycleContext]

var (
	machinesOnce sync.Once
	machines     map[State]interpreterFactory
	machinesErr  error
)

// buildMachine returns a factory for interpreters starting in initial.
func buildMachine(initial State) (interpreterFactory, error) {
	builder := statekit.NewMachine[lifecycleContext]("record-lifecycle").
		WithInitial(statekit.StateID(initial)).
		WithContext(lifecycleContext{})

	builder.State(statekit.StateID(StateUnverified)).
		On(statekit.EventType(EventClaim)).Target(statekit.StateID(StateProcessing)).
		Done()

	builder.State(statekit.StateID(StateProcessing)).
		On(statekit.EventType(EventVerify)).Target(statekit.StateID(StateVerified)).
		On(statekit.EventType(EventFlag)).Target(statekit.StateID(StateFlagged)).
		On(statekit.EventType(EventRelease)).Target(statekit.StateID(StateUnverified)).
		Done()

	builder.State(statekit.StateID(StateFlagged)).
		On(statekit.EventType(EventRequeue)).Target(statekit.StateID(StateUnverified)).
		Done()

	builder.State(statekit.StateID(StateVerified)).
		On(statekit.EventType(EventReopen)).Target(statekit.StateID(StateUnverified)).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return func() *statekit.Interpreter[lifecycleContext] {
		return statekit.NewInterpreter(machine)
	}, nil
}

func loadMachines() (map[State]interpreterFactory, error) {
	machinesOnce.Do(func() {
		built := make(map[State]interpreterFactory, len(allStates))
		for _, state := range allStates {
			machine, err := buildMachine(state)
			if err != nil {
				machinesErr = fmt.Errorf("build lifecycle machine: %w", err)
				return
			}
			built[state] = machine
		}
		machines = built
	})
	return machines, machinesErr
}

// Transition returns the state reached by applying event to from, or
// ErrInvalidTransition when the lifecycle does not allow it.
func Transition(from State, event Event) (State, error) {
	built, err := loadMachines()
	if err != nil {
		return from, err
	}
	newInterpreter, ok := built[from]
	if !ok {
		return from, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, from)
	}
	interp := newInterpreter()
	interp.Start()
	interp.Send(statekit.Event{Type: statekit.EventType(event)})
	to := State(interp.State().Value)
	if to == from {
		return from, fmt.Errorf("%w: %s not allowed from %s", ErrInvalidTransition, event, from)
	}
	return to, nil
}

// CanTransition reports whether event is allowed from the given state.
func CanTransition(from State, event Event) bool {
	_, err := Transition(from, event)
	return err == nil
}

// TerminalEvent returns the event that moves a processing record into the target state.
func TerminalEvent(target State) (Event, error) {
	switch target {
	case StateVerified:
		return EventVerify, nil
	case StateFlagged:
		return EventFlag, nil
	case StateUnverified:
		return EventRelease, nil
	default:
		return "", fmt.Errorf("%w: no event leads from processing to %s", ErrInvalidTransition, target)
	}
}
