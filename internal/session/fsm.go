package session

import (
	"errors"
	"fmt"
	"log/slog"
)

type State string
type Event string

const (
	// Состояния жизненного цикла комнаты
	AwaitingParticipantsState State = "awaiting_participants"
	AwaitingVoiceChatState    State = "awaiting_voice_chat"
	VoiceChatActiveState      State = "voice_chat_active"
	EndingState               State = "ending"
	ClosedState               State = "closed"

	// События
	EventParticipantsReady Event = "participants_ready"
	EventVoiceChatStarted  Event = "voice_chat_started"
	EventTerminate         Event = "terminate"
	EventTornDown          Event = "torn_down"
)

var ErrInvalidTransition = errors.New("invalid transition")

type FSM struct {
	current      State
	transistions map[State]map[Event]State
}

func NewFSM() *FSM {
	return &FSM{
		current: AwaitingParticipantsState,
		transistions: map[State]map[Event]State{
			AwaitingParticipantsState: {
				EventParticipantsReady: AwaitingVoiceChatState,
				EventTerminate:         EndingState,
			},
			AwaitingVoiceChatState: {
				EventVoiceChatStarted: VoiceChatActiveState,
				EventTerminate:        EndingState,
			},
			VoiceChatActiveState: {
				EventTerminate: EndingState,
			},
			EndingState: {
				EventTornDown: ClosedState,
			},
		},
	}
}

func (f *FSM) Current() State {
	return f.current
}

func (f *FSM) Trigger(event Event) error {
	next, ok := f.transistions[f.current][event]
	if !ok {
		return fmt.Errorf("%w: %s → (%s)", ErrInvalidTransition, f.current, event)
	}
	slog.Debug("session state transition", "from", f.current, "event", event, "to", next)
	f.current = next
	return nil
}

// Обертка над тригером.
func SafeTrigger(fsm *FSM, event Event, context string) bool {
	err := fsm.Trigger(event)
	if err != nil {
		slog.Warn("state transition skipped",
			"context", context, "state", fsm.Current(), "event", event, "err", err)
		return false
	}
	return true
}

// ForceState - для тестирования
func (f *FSM) ForceState(newState State) {
	f.current = newState
}
