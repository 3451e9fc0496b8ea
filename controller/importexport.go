package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/uixray/figma-llm-plugin-sub001/preset"
)

// ImportPreset parses a portable preset document, adopts it into the
// collection with fresh ids, selects it, and persists. A malformed document
// aborts the import and leaves the collection untouched.
func (c *Controller) ImportPreset(ctx context.Context, doc []byte) (*preset.Preset, error) {
	p, err := preset.Import(doc, time.Now())
	if err != nil {
		c.notifier.Notify(LevelError, err.Error())
		return nil, err
	}
	if err := c.state.Presets.Adopt(ctx, p); err != nil {
		c.notifyHostError("import preset", err)
		return nil, err
	}
	c.notifier.Notify(LevelSuccess, fmt.Sprintf(
		"Imported %q: %d group(s), %d field(s)", p.Name, len(p.Groups), len(p.FieldNames)))
	return p, nil
}

// ExportPreset serializes one preset to its portable document form and the
// filename it should be offered under.
func (c *Controller) ExportPreset(id string) (filename string, doc []byte, err error) {
	p, ok := c.state.Presets.Get(id)
	if !ok {
		c.notifier.Notify(LevelError, "Preset not found")
		return "", nil, preset.ErrNotFound
	}
	doc, err = preset.Export(&p)
	if err != nil {
		return "", nil, err
	}
	return preset.ExportFilename(p.Name), doc, nil
}
