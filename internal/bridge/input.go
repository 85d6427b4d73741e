package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
)

const defaultSwipeDuration = 150 * time.Millisecond

// Executor starts a program without waiting for it to finish.
type Executor interface {
	Start(ctx context.Context, name string, args ...string) error
}

// InputDispatcher turns data-channel input commands into device input
// invocations.
type InputDispatcher struct {
	adb           string
	swipeDuration time.Duration
	exec          Executor
	log           *slog.Logger
}

func NewInputDispatcher(adb string, swipeDuration time.Duration, exec Executor, log *slog.Logger) *InputDispatcher {
	if adb == "" {
		adb = "adb"
	}
	if swipeDuration <= 0 {
		swipeDuration = defaultSwipeDuration
	}
	if log == nil {
		log = slog.Default()
	}
	return &InputDispatcher{
		adb:           adb,
		swipeDuration: swipeDuration,
		exec:          exec,
		log:           log,
	}
}

// Dispatch handles one raw data-channel message. Bad or unknown commands are
// logged and dropped.
func (d *InputDispatcher) Dispatch(ctx context.Context, raw []byte) {
	const op = "bridge.input.dispatch"
	log := d.log.With(slog.String("op", op))

	cmd, err := domain.ParseInputCommand(raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownInputType) {
			log.Warn("ignoring unknown input command", sl.Err(err))
			return
		}
		log.Warn("malformed input command", sl.Err(err))
		return
	}

	args, err := InputArgs(cmd, d.swipeDuration)
	if err != nil {
		log.Warn("unusable input command", sl.Err(err))
		return
	}

	log.Debug("dispatching input", slog.String("type", string(cmd.InputType())))
	if err := d.exec.Start(ctx, d.adb, args...); err != nil {
		log.Error("failed to run input command", slog.String("type", string(cmd.InputType())), sl.Err(err))
	}
}

// InputArgs builds the adb argument vector for cmd.
func InputArgs(cmd domain.InputCommand, swipeDuration time.Duration) ([]string, error) {
	switch c := cmd.(type) {
	case domain.Tap:
		return []string{"shell", "input", "tap", formatCoord(c.X), formatCoord(c.Y)}, nil
	case domain.Swipe:
		duration := c.Duration
		if duration <= 0 {
			duration = swipeDuration
		}
		return []string{
			"shell", "input", "swipe",
			formatCoord(c.X1), formatCoord(c.Y1), formatCoord(c.X2), formatCoord(c.Y2),
			strconv.FormatInt(duration.Milliseconds(), 10),
		}, nil
	case domain.Key:
		return []string{"shell", "input", "keyevent", c.Code}, nil
	case domain.Text:
		if c.Content == "" {
			return nil, fmt.Errorf("%w: empty text", domain.ErrInvalidInput)
		}
		if strings.Contains(c.Content, "%s") {
			return nil, fmt.Errorf("%w: text containing %%s cannot be typed literally", domain.ErrInvalidInput)
		}
		return []string{"shell", "input", "text", EscapeInputText(c.Content)}, nil
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownInputType, cmd)
	}
}

// EscapeInputText makes s safe to pass through `adb shell input text`.
// adb joins its arguments into a device-side shell command line, so every
// character other than letters, digits, '_' and space is backslash-escaped.
// Spaces become %s, which `input text` decodes back into a space.
//
// `input text` turns every %s it receives into a space and has no escape for
// it, so a literal "%s" in s would be typed as a space. InputArgs rejects
// such text instead of typing something else.
func EscapeInputText(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteString("%s")
		case isWordRune(r):
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_'
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
