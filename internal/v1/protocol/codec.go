package protocol

import (
	"encoding/json"
	"fmt"
)

// BadFrameError reports a frame that failed decode validation. The raw bytes
// are retained for logging; they never reach the room worker.
type BadFrameError struct {
	Reason string
	Raw    []byte
}

func (e *BadFrameError) Error() string {
	return fmt.Sprintf("bad frame: %s", e.Reason)
}

func badFrame(raw []byte, format string, args ...any) error {
	return &BadFrameError{Reason: fmt.Sprintf(format, args...), Raw: raw}
}

// envelope is the first-pass decode target: just the discriminator. Unknown
// fields elsewhere in the frame are ignored by design.
type envelope struct {
	Type FrameType `json:"type"`
}

// Decode parses a textual frame into its typed representation. Mandatory
// fields are checked here so downstream code can rely on them; a failure is
// always a *BadFrameError.
func Decode(data []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, badFrame(data, "not valid JSON: %v", err)
	}
	if env.Type == "" {
		return nil, badFrame(data, "missing type discriminator")
	}

	switch env.Type {
	case TypeStateUpdate:
		var f StateUpdate
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, badFrame(data, "malformed STATE_UPDATE: %v", err)
		}
		switch f.Status {
		case StatusWaiting, StatusReady, StatusPlaying, StatusPaused, StatusFinished:
		default:
			return nil, badFrame(data, "unknown status %q", f.Status)
		}
		return f, nil

	case TypeDrawCard, TypePauseGame, TypeResumeGame, TypeResetGame:
		return GameCommand{Type: env.Type}, nil

	case TypeFlipCard:
		var raw struct {
			IsFlipped *bool `json:"isFlipped"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, badFrame(data, "malformed FLIP_CARD: %v", err)
		}
		if raw.IsFlipped == nil {
			return nil, badFrame(data, "FLIP_CARD missing isFlipped")
		}
		return FlipCard{Type: TypeFlipCard, IsFlipped: *raw.IsFlipped}, nil

	case TypeToggleDetailed:
		var raw struct {
			IsExpanded *bool `json:"isExpanded"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, badFrame(data, "malformed TOGGLE_DETAILED: %v", err)
		}
		if raw.IsExpanded == nil {
			return nil, badFrame(data, "TOGGLE_DETAILED missing isExpanded")
		}
		return ToggleDetailed{Type: TypeToggleDetailed, IsExpanded: *raw.IsExpanded}, nil

	case TypeSoundPreference:
		var raw struct {
			Enabled *bool       `json:"enabled"`
			Source  SoundSource `json:"source"`
			Scope   SoundScope  `json:"scope"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, badFrame(data, "malformed SOUND_PREFERENCE: %v", err)
		}
		if raw.Enabled == nil {
			return nil, badFrame(data, "SOUND_PREFERENCE missing enabled")
		}
		if raw.Source != SourceHost && raw.Source != SourceController {
			return nil, badFrame(data, "unknown sound source %q", raw.Source)
		}
		if raw.Scope != ScopeLocal && raw.Scope != ScopeHostOnly && raw.Scope != ScopeBoth {
			return nil, badFrame(data, "unknown sound scope %q", raw.Scope)
		}
		return SoundPreference{Type: TypeSoundPreference, Enabled: *raw.Enabled, Source: raw.Source, Scope: raw.Scope}, nil

	case TypeSoundPreferenceAck:
		var raw struct {
			Enabled *bool      `json:"enabled"`
			Scope   SoundScope `json:"scope"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, badFrame(data, "malformed SOUND_PREFERENCE_ACK: %v", err)
		}
		if raw.Enabled == nil {
			return nil, badFrame(data, "SOUND_PREFERENCE_ACK missing enabled")
		}
		return SoundPreferenceAck{Type: TypeSoundPreferenceAck, Enabled: *raw.Enabled, Scope: raw.Scope}, nil

	case TypeReaction:
		var f Reaction
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, badFrame(data, "malformed REACTION: %v", err)
		}
		if _, ok := Emojis[f.Emoji]; !ok {
			return nil, badFrame(data, "emoji %q not in reaction alphabet", f.Emoji)
		}
		f.Type = TypeReaction
		return f, nil

	case TypeReactionBurst:
		var f ReactionBurst
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, badFrame(data, "malformed REACTION_BURST: %v", err)
		}
		f.Type = TypeReactionBurst
		return f, nil

	case TypeSpectatorCount:
		var f SpectatorCount
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, badFrame(data, "malformed SPECTATOR_COUNT: %v", err)
		}
		f.Type = TypeSpectatorCount
		return f, nil

	default:
		return nil, badFrame(data, "unknown frame type %q", env.Type)
	}
}

// Encode serializes a frame for the wire. Encoding is total over the closed
// frame set; the only failure mode is a frame built without its discriminator.
func Encode(f Frame) ([]byte, error) {
	if f.FrameType() == "" {
		return nil, fmt.Errorf("frame has no type discriminator: %T", f)
	}
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", f.FrameType(), err)
	}
	return data, nil
}
