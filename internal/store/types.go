package store

import "encoding/json"

// stateVersion is the highest stack.json/config.json schema version this
// build understands. Loading a higher version fails with
// [ErrUnsupportedVersion] rather than guessing at forward-compatible
// fields.
const stateVersion = 1

// StackFile is the on-disk shape of .git/rung/stack.json.
type StackFile struct {
	Version  int                     `json:"version"`
	Trunk    string                  `json:"trunk"`
	Branches map[string]BranchRecord `json:"branches"`

	// Extra holds top-level fields this build doesn't recognize, so a
	// newer binary's additions survive a round trip through an older one
	// (spec §6: "JSON schema is forward-compatible: unknown fields are
	// preserved on save").
	Extra map[string]json.RawMessage `json:"-"`
}

// BranchRecord is one tracked branch's persisted fields.
type BranchRecord struct {
	Parent              string `json:"parent"`
	PR                  *int   `json:"pr"`
	LastSyncedParentTip string `json:"last_synced_parent_tip,omitempty"`
	CreatedAt           string `json:"created_at"`
}

// ConfigFile is the on-disk shape of .git/rung/config.json.
type ConfigFile struct {
	Version     int    `json:"version"`
	Trunk       string `json:"trunk"`
	Remote      string `json:"remote"`
	MergeMethod string `json:"merge_method"`
	NoColor     bool   `json:"no_color"`

	// Extra holds top-level fields this build doesn't recognize (see
	// [StackFile.Extra]).
	Extra map[string]json.RawMessage `json:"-"`
}

// PlanStep is one branch's rebase step within a sync plan.
type PlanStep struct {
	Branch   string `json:"branch"`
	Parent   string `json:"parent"`
	OldTip   string `json:"old_tip"`
	Upstream string `json:"upstream"`
}

// Journal is the on-disk shape of .git/rung/op.json: a suspended
// multi-step operation.
type Journal struct {
	Kind      string            `json:"kind"`
	StartedAt string            `json:"started_at"`
	Base      string            `json:"base"`
	Plan      []PlanStep        `json:"plan"`
	Cursor    int               `json:"cursor"`
	Backups   map[string]string `json:"backups"`

	// OpID names the backups/<op-id>/ directory holding per-branch
	// pre-sync tip blobs. It is not part of spec §3's journal shape,
	// which folds Backups inline, but on-disk layout (§6) stores
	// backups as separate "<branch>.sha" blobs under a per-operation
	// directory, so the journal needs a handle to that directory.
	OpID string `json:"op_id"`

	// OriginalBranch is the branch the user was on before sync started;
	// restored on completion or abort. Not named explicitly in spec
	// §3's journal shape, but required to resume that behavior across a
	// process restart (JSON schema is forward-compatible: spec §6).
	OriginalBranch string `json:"original_branch,omitempty"`

	// Extra holds top-level fields this build doesn't recognize (see
	// [StackFile.Extra]).
	Extra map[string]json.RawMessage `json:"-"`
}

// JournalKindSync is the only operation kind journaled today.
const JournalKindSync = "sync"
