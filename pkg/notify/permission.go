package notify

import "context"

// Permission is the tri-state platform notification permission.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Prompter models the platform permission surface. Current returns the
// present state without prompting; Request issues a prompt and returns the
// user's decision.
type Prompter interface {
	Current() Permission
	Request(ctx context.Context) (Permission, error)
}

// StaticPrompter reports a fixed permission state and never prompts.
// Request confirms whatever state it was constructed with.
type StaticPrompter struct {
	state Permission
}

func NewStaticPrompter(state Permission) *StaticPrompter {
	return &StaticPrompter{state: state}
}

func (p *StaticPrompter) Current() Permission { return p.state }

func (p *StaticPrompter) Request(context.Context) (Permission, error) {
	if p.state == PermissionDefault {
		return PermissionGranted, nil
	}
	return p.state, nil
}
