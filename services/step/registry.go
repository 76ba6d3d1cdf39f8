package step

import "sort"

// Canonical step names as stored in the step history. The usual sequence is
// connection-verification → deploy-key-generation → database-creation →
// folder-setup → env-setup → env-update → ssh-key-setup →
// deploy-workflow-update, but each step past connection verification only
// requires the application to exist, not that earlier steps succeeded.
const (
	StepConnectionVerification = "connection-verification"
	StepDeployKeyGeneration    = "deploy-key-generation"
	StepDatabaseCreation       = "database-creation"
	StepFolderSetup            = "folder-setup"
	StepEnvSetup               = "env-setup"
	StepEnvUpdate              = "env-update"
	StepSSHKeySetup            = "ssh-key-setup"
	StepDeployWorkflowUpdate   = "deploy-workflow-update"
)

// Registry holds the set of named steps.
type Registry struct {
	steps map[string]Step
}

// NewRegistry creates a registry containing the full provisioning step set.
func NewRegistry() *Registry {
	r := &Registry{steps: make(map[string]Step)}
	r.Register(&connectionVerifyStep{})
	r.Register(&deployKeyStep{})
	r.Register(&databaseCreateStep{})
	r.Register(&folderSetupStep{})
	r.Register(&envSetupStep{})
	r.Register(&envUpdateStep{})
	r.Register(&sshKeySetupStep{})
	r.Register(&deployWorkflowStep{})
	return r
}

// Register adds a step; a later registration under the same name replaces
// the earlier one.
func (r *Registry) Register(s Step) {
	r.steps[s.Name()] = s
}

// Get resolves a step by name.
func (r *Registry) Get(name string) (Step, bool) {
	s, ok := r.steps[name]
	return s, ok
}

// Names lists the registered step names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
