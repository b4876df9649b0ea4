package types

// Transition names a state machine operation
type Transition string

const (
	TransitionLink    Transition = "link"
	TransitionRestore Transition = "restore"
	TransitionUnlink  Transition = "unlink"
	TransitionIgnore  Transition = "ignore"
	TransitionHeed    Transition = "heed"
)

// OperationType defines the type of file system operation
type OperationType string

const (
	// OperationMove moves data between the original location and storage
	OperationMove OperationType = "move"

	// OperationLink creates a link at Source pointing to Target
	OperationLink OperationType = "link"

	// OperationUnlink removes the link at Source
	OperationUnlink OperationType = "unlink"

	// OperationMkdir creates a missing parent directory
	OperationMkdir OperationType = "mkdir"

	// OperationRollback moves data back after a failed step
	OperationRollback OperationType = "rollback"
)

// Operation represents a file system step a transition performed, or would
// perform in dry-run mode
type Operation struct {
	Type   OperationType
	Source string
	Target string
}

// TransitionResult describes what happened to one entry
type TransitionResult struct {
	EntryID    string
	Transition Transition
	From       EntryState
	To         EntryState

	// NoOp is set when the entry was already in the requested state
	NoOp bool

	DryRun     bool
	Operations []Operation

	// Warnings are non-fatal notes for the user
	Warnings []string

	// Err is set when the transition failed; the other fields then describe
	// the state the entry was left in
	Err error
}

// Failed reports whether the transition returned an error
func (r *TransitionResult) Failed() bool {
	return r.Err != nil
}

// CommandResult aggregates per-entry results for one command invocation
type CommandResult struct {
	Command     string
	DryRun      bool
	StorageRoot string
	Results     []TransitionResult
}

// FailedCount returns the number of entries that failed
func (c *CommandResult) FailedCount() int {
	n := 0
	for i := range c.Results {
		if c.Results[i].Failed() {
			n++
		}
	}
	return n
}

// SucceededCount returns the number of entries that succeeded
func (c *CommandResult) SucceededCount() int {
	return len(c.Results) - c.FailedCount()
}

// HasFailures reports whether any entry failed
func (c *CommandResult) HasFailures() bool {
	return c.FailedCount() > 0
}
