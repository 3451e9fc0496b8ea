package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/uixray/figma-llm-plugin-sub001/preset"
	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

// Local precondition failures. These are reported to the user and never
// reach the host.
var (
	ErrEmptyPrompt      = errors.New("prompt must not be empty")
	ErrNoProvider       = errors.New("no provider configured")
	ErrGenerationActive = errors.New("a generation is already running")
	ErrNoSelection      = errors.New("no preset selected")
)

// Generate starts a streaming generation for prompt. Preconditions are
// checked locally: a configured provider and a non-empty prompt. On success
// the session enters running and a generate-text message goes out; the
// host's generation-started reply supplies the session id.
func (c *Controller) Generate(ctx context.Context, prompt string) error {
	if c.state.Session.Running() {
		c.notifier.Notify(LevelWarning, "A generation is already running")
		return ErrGenerationActive
	}
	cfg := c.state.Settings.Current()
	if cfg.Provider == "" {
		c.notifier.Notify(LevelError, "Configure a provider before generating")
		return ErrNoProvider
	}
	if strings.TrimSpace(prompt) == "" {
		c.notifier.Notify(LevelError, "Enter a prompt first")
		return ErrEmptyPrompt
	}
	if err := c.state.Session.Begin(); err != nil {
		return err
	}
	req := &protocol.GenerateText{
		Prompt:      prompt,
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	}
	if err := c.post(ctx, req); err != nil {
		c.state.Session.Abort(err.Error())
		c.notifier.Notify(LevelError, "Could not reach the plugin host")
		return err
	}
	return nil
}

// CancelGeneration cancels the running generation. The local state flips to
// cancelled immediately; the host is notified but not waited on.
func (c *Controller) CancelGeneration(ctx context.Context) {
	id, ok := c.state.Session.Cancel()
	if !ok {
		return
	}
	if err := c.post(ctx, &protocol.CancelGeneration{GenerationID: id}); err != nil {
		c.logger.Warn("cancel notification failed", "error", err)
	}
}

// SelectedText fetches the current document selection's text from the host.
func (c *Controller) SelectedText(ctx context.Context) (string, error) {
	env, err := c.request(ctx, &protocol.GetSelectedText{})
	if err != nil {
		return "", err
	}
	res, ok := env.Payload.(*protocol.TextApplied)
	if !ok {
		return "", fmt.Errorf("get selected text: unexpected response %s", env.Kind())
	}
	return res.Text, nil
}

// ApplyText writes text into the host document selection and reports the
// node count back to the user.
func (c *Controller) ApplyText(ctx context.Context, text string) error {
	env, err := c.request(ctx, &protocol.ApplyText{Text: text})
	if err != nil {
		c.notifyHostError("apply text", err)
		return err
	}
	res, ok := env.Payload.(*protocol.TextApplied)
	if !ok {
		return fmt.Errorf("apply text: unexpected response %s", env.Kind())
	}
	c.notifier.Notify(LevelSuccess, fmt.Sprintf("Applied text to %d node(s)", res.NodesUpdated))
	return nil
}

// SaveSettings persists the provider settings through the host.
func (c *Controller) SaveSettings(ctx context.Context, cfg protocol.ProviderSettings) error {
	if err := c.state.Settings.Save(ctx, cfg); err != nil {
		c.notifyHostError("save settings", err)
		return err
	}
	c.notifier.Notify(LevelSuccess, "Settings saved")
	return nil
}

// TestConnection probes the provider endpoint and reports the verdict.
func (c *Controller) TestConnection(ctx context.Context) error {
	ok, errText, err := c.state.Settings.TestConnection(ctx)
	if err != nil {
		c.notifyHostError("test connection", err)
		return err
	}
	if !ok {
		c.notifier.Notify(LevelError, errText)
		return nil
	}
	c.notifier.Notify(LevelSuccess, "Connection OK")
	return nil
}

// TestTranslation runs a sample translation and reports the verdict.
func (c *Controller) TestTranslation(ctx context.Context, text string) error {
	res, err := c.state.Settings.TestTranslation(ctx, text)
	if err != nil {
		c.notifyHostError("test translation", err)
		return err
	}
	if !res.OK {
		c.notifier.Notify(LevelError, res.Error)
		return nil
	}
	c.notifier.Notify(LevelSuccess, res.Translated)
	return nil
}

// SelectPreset updates the preset selection. Selection is local until the
// next save persists the collection.
func (c *Controller) SelectPreset(id string) {
	if !c.state.Presets.Select(id) {
		c.logger.Warn("ignoring selection of unknown preset", "id", id)
	}
}

// SavePreset validates and persists a preset built by the editor.
func (c *Controller) SavePreset(ctx context.Context, p preset.Preset) (preset.Preset, error) {
	saved, err := c.state.Presets.Save(ctx, p)
	if err != nil {
		var verr *preset.ValidationError
		if errors.As(err, &verr) {
			c.notifier.Notify(LevelError, verr.Reason)
		} else {
			c.notifyHostError("save preset", err)
		}
		return preset.Preset{}, err
	}
	c.notifier.Notify(LevelSuccess, fmt.Sprintf("Preset %q saved", saved.Name))
	return saved, nil
}

// DeletePreset removes a preset after confirmation. Built-ins are refused
// without prompting and without contacting the host.
func (c *Controller) DeletePreset(ctx context.Context, id string) error {
	var confirm preset.ConfirmFunc
	if c.confirm != nil {
		confirm = c.confirm.Confirm
	}
	err := c.state.Presets.Delete(ctx, id, confirm)
	switch {
	case err == nil:
		c.notifier.Notify(LevelSuccess, "Preset deleted")
		return nil
	case errors.Is(err, preset.ErrBuiltinProtected):
		c.notifier.Notify(LevelError, "Built-in presets cannot be deleted")
		return err
	case errors.Is(err, preset.ErrDeleteDeclined):
		return nil
	case errors.Is(err, preset.ErrNotFound):
		c.notifier.Notify(LevelError, "Preset not found")
		return err
	default:
		c.notifyHostError("delete preset", err)
		return err
	}
}

// request is the correlated request path; no timeout beyond the caller's ctx.
func (c *Controller) request(ctx context.Context, payload protocol.Payload) (*protocol.Envelope, error) {
	pending, err := c.corr.Send(ctx, payload, 0)
	if err != nil {
		return nil, err
	}
	return pending.Await(ctx)
}

// post is the fire-and-forget path.
func (c *Controller) post(ctx context.Context, payload protocol.Payload) error {
	if err := c.ch.Send(ctx, &protocol.Envelope{Payload: payload}); err != nil {
		return err
	}
	c.metrics.MessageOut(string(payload.Kind()))
	return nil
}

// notifyHostError surfaces a transport or host failure verbatim.
func (c *Controller) notifyHostError(op string, err error) {
	c.notifier.Notify(LevelError, fmt.Sprintf("%s failed: %v", op, err))
}
