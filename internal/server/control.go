package server

import (
	"github.com/verdantlab/meadow/internal/core/entity"
	"github.com/verdantlab/meadow/internal/core/observability/log"
	"github.com/verdantlab/meadow/internal/core/sim"
)

// ControlMessage is the inbound command format on the websocket.
// Action selects the event; the other fields apply per action.
type ControlMessage struct {
	Action string `json:"action"`

	// spawn
	Kind string  `json:"kind,omitempty"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	Rule string  `json:"rule,omitempty"`

	// remove
	ID uint64 `json:"id,omitempty"`

	// set
	Key   string  `json:"key,omitempty"`
	Value float64 `json:"value,omitempty"`

	// step
	Count uint64 `json:"count,omitempty"`
}

// handleControl maps a client command to an input event. Malformed
// commands are logged and dropped; they never reach the scheduler.
func (f *Feed) handleControl(msg ControlMessage, client string) {
	switch msg.Action {
	case "pause":
		f.queue.Push(sim.Event{Type: sim.EventPause})
	case "resume":
		f.queue.Push(sim.Event{Type: sim.EventResume})
	case "step":
		f.queue.Push(sim.Event{Type: sim.EventStep, Count: msg.Count})
	case "remove":
		f.queue.Push(sim.Event{Type: sim.EventRemove, ID: entity.ID(msg.ID)})
	case "set":
		if msg.Key == "" {
			f.logger.Warn("set command without key dropped", log.String("client", client))
			return
		}
		f.queue.Push(sim.Event{Type: sim.EventSetParameter, Key: msg.Key, Value: msg.Value})
	case "spawn":
		comps, ok := f.spawnComponents(msg)
		if !ok {
			f.logger.Warn("spawn command with unknown kind dropped",
				log.String("client", client),
				log.String("kind", msg.Kind))
			return
		}
		f.queue.Push(sim.Event{Type: sim.EventSpawn, Spawn: comps})
	default:
		f.logger.Warn("unknown command dropped",
			log.String("client", client),
			log.String("action", msg.Action))
	}
}

func (f *Feed) spawnComponents(msg ControlMessage) (*entity.Components, bool) {
	kind, ok := entity.ParseKind(msg.Kind)
	if !ok {
		return nil, false
	}
	switch kind {
	case entity.KindAgent:
		return entity.NewAgent(msg.X, msg.Y, msg.Rule), true
	case entity.KindFood:
		return entity.NewFood(msg.X, msg.Y), true
	case entity.KindSource:
		return entity.NewSource(msg.X, msg.Y), true
	default:
		return nil, false
	}
}
