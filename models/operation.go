package models

// Action is the closed vocabulary of governed operations. Every state-changing
// call names one of these; anything outside the set is blocked by the
// epistemic-security rule.
type Action string

const (
	ActionCreateCredential Action = "create_credential"
	ActionReadCredential   Action = "read_credential"
	ActionUpdateCredential Action = "update_credential"
	ActionDeleteCredential Action = "delete_credential"
	ActionCreateConnection Action = "create_connection"
	ActionTestConnection   Action = "test_connection"
	ActionUpdateConnection Action = "update_connection"
	ActionCreateWorkflow   Action = "create_workflow"
	ActionExecuteWorkflow  Action = "execute_workflow"
	ActionReadLogs         Action = "read_logs"
	ActionReadStatus       Action = "read_status"
)

// Allowed reports whether the action is explicitly permitted
func (a Action) Allowed() bool {
	switch a {
	case ActionCreateCredential, ActionReadCredential, ActionUpdateCredential,
		ActionDeleteCredential, ActionCreateConnection, ActionTestConnection,
		ActionUpdateConnection, ActionCreateWorkflow, ActionExecuteWorkflow,
		ActionReadLogs, ActionReadStatus:
		return true
	}
	return false
}

// Mutating reports whether the action alters an existing resource. Used by the
// non-contamination rule to demand a resource id alongside the acting user.
func (a Action) Mutating() bool {
	switch a {
	case ActionUpdateCredential, ActionDeleteCredential,
		ActionUpdateConnection, ActionExecuteWorkflow:
		return true
	}
	return false
}

// OperationContext describes one governed operation. It is built per call and
// never persisted directly; only its audit projection is.
type OperationContext struct {
	UserID       int64
	Action       Action
	ResourceType string
	ResourceID   *int64
	Input        map[string]interface{}
	IPAddress    string
	UserAgent    string
	RequestID    string
}

// WithResource returns a copy of the context pointing at a concrete resource
func (c OperationContext) WithResource(id int64) OperationContext {
	c.ResourceID = &id
	return c
}

// RuleType identifies which AMA-G rule produced a validation result
type RuleType string

const (
	RuleTypeVerity            RuleType = "verity"
	RuleTypeDeterminism       RuleType = "determinism"
	RuleTypeNoContamination   RuleType = "noContamination"
	RuleTypeEpistemicSecurity RuleType = "epistemicSecurity"

	// RuleTypeAggregate tags the combined verdict when every rule passed,
	// so a passing aggregate is distinguishable from any single rule.
	RuleTypeAggregate RuleType = "aggregate"
)

// ValidationResult is the outcome of one policy rule or of the aggregate.
// Results are produced fresh per evaluation and never mutated.
type ValidationResult struct {
	Passed   bool     `json:"passed"`
	Reason   string   `json:"reason"`
	RuleType RuleType `json:"rule_type"`
}
