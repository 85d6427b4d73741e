package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	ErrInvalidInput     = errors.New("invalid input command")
	ErrUnknownInputType = errors.New("unknown input command type")
)

type InputType string

const (
	InputTypeTap   InputType = "tap"
	InputTypeSwipe InputType = "swipe"
	InputTypeKey   InputType = "key"
	InputTypeText  InputType = "text"
)

// InputCommand is one user input sent by the browser over the data
// channel. The concrete variants are Tap, Swipe, Key and Text.
type InputCommand interface {
	InputType() InputType
}

type Tap struct {
	X, Y float64
}

type Swipe struct {
	X1, Y1, X2, Y2 float64
	// Duration is zero when the browser did not specify one.
	Duration time.Duration
}

type Key struct {
	Code string
}

type Text struct {
	Content string
}

func (Tap) InputType() InputType   { return InputTypeTap }
func (Swipe) InputType() InputType { return InputTypeSwipe }
func (Key) InputType() InputType   { return InputTypeKey }
func (Text) InputType() InputType  { return InputTypeText }

var keyCodePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type inputEnvelope struct {
	Type     InputType       `json:"type"`
	X        *float64        `json:"x"`
	Y        *float64        `json:"y"`
	X1       *float64        `json:"x1"`
	Y1       *float64        `json:"y1"`
	X2       *float64        `json:"x2"`
	Y2       *float64        `json:"y2"`
	Duration *float64        `json:"duration"`
	KeyCode  json.RawMessage `json:"keyCode"`
	Text     *string         `json:"text"`
}

// ParseInputCommand decodes one data-channel message.
func ParseInputCommand(raw []byte) (InputCommand, error) {
	var env inputEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	switch env.Type {
	case InputTypeTap:
		if env.X == nil || env.Y == nil {
			return nil, fmt.Errorf("%w: tap requires x and y", ErrInvalidInput)
		}
		return Tap{X: *env.X, Y: *env.Y}, nil
	case InputTypeSwipe:
		if env.X1 == nil || env.Y1 == nil || env.X2 == nil || env.Y2 == nil {
			return nil, fmt.Errorf("%w: swipe requires x1, y1, x2 and y2", ErrInvalidInput)
		}
		s := Swipe{X1: *env.X1, Y1: *env.Y1, X2: *env.X2, Y2: *env.Y2}
		if env.Duration != nil {
			if *env.Duration < 0 {
				return nil, fmt.Errorf("%w: negative swipe duration", ErrInvalidInput)
			}
			s.Duration = time.Duration(*env.Duration * float64(time.Millisecond))
		}
		return s, nil
	case InputTypeKey:
		code, err := parseKeyCode(env.KeyCode)
		if err != nil {
			return nil, err
		}
		return Key{Code: code}, nil
	case InputTypeText:
		if env.Text == nil {
			return nil, fmt.Errorf("%w: text requires text", ErrInvalidInput)
		}
		return Text{Content: *env.Text}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownInputType, env.Type)
	}
}

// parseKeyCode accepts a JSON number (66) or a symbolic name ("KEYCODE_ENTER").
func parseKeyCode(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: key requires keyCode", ErrInvalidInput)
	}

	var code string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &code); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	} else {
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("%w: keyCode must be an integer or name", ErrInvalidInput)
		}
		code = strconv.FormatInt(n, 10)
	}

	if !keyCodePattern.MatchString(code) {
		return "", fmt.Errorf("%w: keyCode %q", ErrInvalidInput, code)
	}
	return code, nil
}
