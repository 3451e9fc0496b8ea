// Package main implements a mock execution host for local development and
// e2e wiring tests. It answers the controller's messages over NATS with
// canned responses: settings and preset loads return fixture state, text
// generation streams the prompt back word by word, and substitution reports
// a fixed component count. This removes the need for the real design tool
// while exercising the full wire protocol.
//
// Usage:
//
//	mockhost -nats nats://127.0.0.1:4222 -in plugin.host.inbox -out plugin.ui.inbox
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/uixray/figma-llm-plugin-sub001/preset"
	"github.com/uixray/figma-llm-plugin-sub001/protocol"
)

func main() {
	natsURL := flag.String("nats", nats.DefaultURL, "NATS server URL")
	subjectIn := flag.String("in", "plugin.host.inbox", "subject to receive controller messages on")
	subjectOut := flag.String("out", "plugin.ui.inbox", "subject to publish host messages to")
	chunkDelay := flag.Duration("chunk-delay", 50*time.Millisecond, "delay between generation chunks")
	flag.Parse()

	conn, err := nats.Connect(*natsURL, nats.Name("mockhost"))
	if err != nil {
		log.Fatalf("connect to NATS: %v", err)
	}
	defer conn.Close()

	h := &host{
		conn:       conn,
		subjectOut: *subjectOut,
		chunkDelay: *chunkDelay,
		presets:    seedCollection(),
	}
	sub, err := conn.Subscribe(*subjectIn, h.onMessage)
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	log.Printf("mockhost listening on %s, replying on %s", *subjectIn, *subjectOut)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}

type host struct {
	conn       *nats.Conn
	subjectOut string
	chunkDelay time.Duration
	settings   protocol.ProviderSettings
	presets    preset.Collection
}

func (h *host) onMessage(msg *nats.Msg) {
	env, err := protocol.Decode(msg.Data)
	if err != nil {
		log.Printf("drop undecodable message: %v", err)
		return
	}
	switch p := env.Payload.(type) {
	case *protocol.LoadSettings:
		h.reply(env.ID, &protocol.SettingsLoaded{Settings: h.currentSettings()})
	case *protocol.SaveSettings:
		h.settings = p.Settings
	case *protocol.LoadDataPresets:
		blob, _ := json.Marshal(h.presets)
		h.reply(env.ID, &protocol.DataPresetsLoaded{Collection: blob})
	case *protocol.SaveDataPresets:
		var coll preset.Collection
		if err := json.Unmarshal(p.Collection, &coll); err != nil {
			log.Printf("drop malformed collection: %v", err)
			return
		}
		h.presets = coll
	case *protocol.GenerateText:
		go h.generate(p.Prompt)
	case *protocol.CancelGeneration:
		log.Printf("generation %s cancelled by panel", p.GenerationID)
	case *protocol.GetSelectedText:
		h.reply(env.ID, &protocol.TextApplied{Text: "Lorem ipsum"})
	case *protocol.ApplyText:
		h.reply(env.ID, &protocol.TextApplied{NodesUpdated: 1})
	case *protocol.TestConnection:
		h.reply(env.ID, &protocol.TestConnectionResult{OK: true})
	case *protocol.TestTranslation:
		h.reply(env.ID, &protocol.TestTranslationResult{OK: true, Translated: p.Text})
	case *protocol.ApplyDataSubstitution:
		groups := 0
		for _, q := range h.presets.Presets {
			if q.ID == p.PresetID {
				groups = len(q.Groups)
			}
		}
		h.reply(env.ID, protocol.NewSubstitutionApplied(protocol.SubstitutionResult{
			Shape:               protocol.ShapeComponents,
			ComponentsProcessed: 3,
			GroupsUsed:          groups,
		}))
	default:
		log.Printf("unhandled message kind %s", env.Kind())
	}
}

func (h *host) currentSettings() protocol.ProviderSettings {
	if h.settings.Provider == "" {
		return protocol.ProviderSettings{Provider: "mock", Model: "mock-1"}
	}
	return h.settings
}

// generate streams the prompt back word by word, then completes with the
// full text, mimicking the real host's chunked generation lifecycle.
func (h *host) generate(prompt string) {
	id := uuid.NewString()
	h.reply("", &protocol.GenerationStarted{GenerationID: id})
	words := strings.Fields(prompt)
	var full strings.Builder
	for i, w := range words {
		fragment := w
		if i < len(words)-1 {
			fragment += " "
		}
		full.WriteString(fragment)
		h.reply("", &protocol.GenerationChunk{
			GenerationID:    id,
			Chunk:           fragment,
			TokensGenerated: i + 1,
		})
		time.Sleep(h.chunkDelay)
	}
	h.reply("", &protocol.GenerationComplete{
		GenerationID: id,
		FullText:     full.String(),
		TokensUsed:   len(words),
		DurationMS:   int64(h.chunkDelay/time.Millisecond) * int64(len(words)),
	})
}

func (h *host) reply(id string, payload protocol.Payload) {
	data, err := protocol.Encode(&protocol.Envelope{ID: id, Payload: payload})
	if err != nil {
		log.Printf("encode %s: %v", payload.Kind(), err)
		return
	}
	if err := h.conn.Publish(h.subjectOut, data); err != nil {
		log.Printf("publish %s: %v", payload.Kind(), err)
	}
}

// seedCollection ships one built-in preset so substitution works out of the
// box against the mock host.
func seedCollection() preset.Collection {
	now := time.Now()
	return preset.Collection{
		Presets: []preset.Preset{
			{
				ID:         preset.BuiltinPrefix + "sample",
				Name:       "Sample Data",
				Version:    1,
				FieldNames: []string{"name", "email"},
				Groups: []preset.Group{
					{
						ID:     uuid.NewString(),
						Name:   "Ada",
						Values: map[string]string{"name": "Ada Lovelace", "email": "ada@example.com"},
					},
					{
						ID:     uuid.NewString(),
						Name:   "Grace",
						Values: map[string]string{"name": "Grace Hopper", "email": "grace@example.com"},
					},
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
		},
		LastUpdated: now,
	}
}
