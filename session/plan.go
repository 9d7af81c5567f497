package session

import "github.com/google/uuid"

// PlanStatus is the lifecycle of an execution plan.
type PlanStatus string

const (
	PlanAwaitingApproval PlanStatus = "awaiting_approval"
	PlanApproved         PlanStatus = "approved"
	PlanExecuting        PlanStatus = "executing"
	PlanCompleted        PlanStatus = "completed"
	PlanCancelled        PlanStatus = "cancelled"
)

// StepStatus is the lifecycle of a single plan step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepApproved  StepStatus = "approved"
	StepExecuting StepStatus = "executing"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// Terminal reports whether no further transition is expected.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepFailed || s == StepSkipped
}

// ExecutionStep is one service action of a plan. ID is unique per plan.
type ExecutionStep struct {
	ID            string
	Service       string
	Action        string
	Description   string
	Parameters    map[string]any
	Status        StepStatus
	EstimatedTime string
}

// Name is the service/action label used in notices and frames.
func (s ExecutionStep) Name() string {
	return s.Service + "/" + s.Action
}

// ExecutionPlan is an ordered list of proposed steps awaiting approval or
// being executed.
type ExecutionPlan struct {
	ID                 string
	Objective          string
	Steps              []ExecutionStep
	Status             PlanStatus
	TotalEstimatedTime string
}

// Outstanding reports whether the plan is still unresolved.
func (p ExecutionPlan) Outstanding() bool {
	switch p.Status {
	case PlanAwaitingApproval, PlanApproved, PlanExecuting:
		return true
	}
	return false
}

// Step returns the step with the given id.
func (p ExecutionPlan) Step(id string) (ExecutionStep, bool) {
	for _, s := range p.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return ExecutionStep{}, false
}

// WithStepStatus returns a copy of p in which step id has the given status
// and the plan status has been re-derived. Sibling steps are unchanged and
// the receiver's steps slice is never written. ok is false when id is not
// in the plan.
func (p ExecutionPlan) WithStepStatus(id string, status StepStatus) (ExecutionPlan, bool) {
	idx := -1
	for i, s := range p.Steps {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return p, false
	}
	steps := make([]ExecutionStep, len(p.Steps))
	copy(steps, p.Steps)
	steps[idx].Status = status
	p.Steps = steps
	p.Status = derivePlanStatus(p)
	return p, true
}

// WithStatus returns a copy of p with a new plan status.
func (p ExecutionPlan) WithStatus(status PlanStatus) ExecutionPlan {
	p.Status = status
	return p
}

func derivePlanStatus(p ExecutionPlan) PlanStatus {
	if p.Status == PlanCancelled {
		return p.Status
	}
	allTerminal := len(p.Steps) > 0
	executing := false
	for _, s := range p.Steps {
		if !s.Status.Terminal() {
			allTerminal = false
		}
		if s.Status == StepExecuting {
			executing = true
		}
	}
	switch {
	case allTerminal:
		return PlanCompleted
	case executing:
		return PlanExecuting
	default:
		return p.Status
	}
}

// DeploymentPlan builds the fixed deployment pipeline proposed for a
// deployment request.
func DeploymentPlan(objective string) ExecutionPlan {
	if objective == "" {
		objective = "Deploy application"
	}
	return ExecutionPlan{
		ID:        uuid.NewString(),
		Objective: objective,
		Status:    PlanAwaitingApproval,
		Steps: []ExecutionStep{
			{
				ID: "step-1", Service: "mercury", Action: "analyze_repository",
				Description:   "Analyze the repository and detect the application stack",
				Parameters:    map[string]any{"depth": "full"},
				Status:        StepPending,
				EstimatedTime: "30 seconds",
			},
			{
				ID: "step-2", Service: "atlas", Action: "provision_infrastructure",
				Description:   "Provision compute and networking for the application",
				Parameters:    map[string]any{"size": "auto"},
				Status:        StepPending,
				EstimatedTime: "3-5 minutes",
			},
			{
				ID: "step-3", Service: "neptune", Action: "create_dns_record",
				Description:   "Create a DNS record pointing at the new infrastructure",
				Parameters:    map[string]any{"record_type": "A"},
				Status:        StepPending,
				EstimatedTime: "1 minute",
			},
			{
				ID: "step-4", Service: "hermes", Action: "generate_ssh_key",
				Description:   "Generate an SSH deploy key for the server",
				Parameters:    map[string]any{"algorithm": "ed25519"},
				Status:        StepPending,
				EstimatedTime: "15 seconds",
			},
			{
				ID: "step-5", Service: "phoenix", Action: "deploy_application",
				Description:   "Build and deploy the application",
				Parameters:    map[string]any{"strategy": "rolling"},
				Status:        StepPending,
				EstimatedTime: "2-4 minutes",
			},
		},
		TotalEstimatedTime: "7-11 minutes",
	}
}
