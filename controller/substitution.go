package controller

import (
	"context"
	"fmt"

	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// RequestSubstitution asks the host to substitute the selected preset's
// values into the document. The substitution itself runs host-side; this end
// only validates that a preset is selected and reports the outcome. The host
// answers in one of two historical result shapes, both accepted here.
func (c *Controller) RequestSubstitution(ctx context.Context) (*protocol.SubstitutionResult, error) {
	presetID := c.state.Presets.SelectedID()
	if presetID == "" {
		c.notifier.Notify(LevelError, "Select a preset first")
		return nil, ErrNoSelection
	}

	env, err := c.request(ctx, &protocol.ApplyDataSubstitution{PresetID: presetID})
	if err != nil {
		c.notifyHostError("apply substitution", err)
		return nil, err
	}
	applied, ok := env.Payload.(*protocol.SubstitutionApplied)
	if !ok {
		return nil, fmt.Errorf("apply substitution: unexpected response %s", env.Kind())
	}
	if !applied.Success {
		c.notifier.Notify(LevelError, applied.Error)
		return nil, &HostError{Op: "apply substitution", Message: applied.Error}
	}

	result := applied.Result()
	switch result.Shape {
	case protocol.ShapeComponents:
		c.notifier.Notify(LevelSuccess, fmt.Sprintf(
			"Substituted %d component(s) using %d group(s)",
			result.ComponentsProcessed, result.GroupsUsed))
	case protocol.ShapeNodes:
		c.notifier.Notify(LevelSuccess, fmt.Sprintf(
			"Substituted %d node(s)", result.NodesProcessed))
	}
	return result, nil
}
