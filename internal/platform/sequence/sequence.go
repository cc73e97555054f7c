// Package sequence issues human-readable daily document numbers such as
// ORD-20240115-001 and INV-20240115-001.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxAttempts bounds how many numbers Allocate tries before giving up.
const MaxAttempts = 5

// ErrCollision is returned by a save func when the number is already taken.
var ErrCollision = errors.New("document number already taken")

// ErrExhausted means every attempt collided.
var ErrExhausted = errors.New("could not allocate a unique document number")

// Daily returns the prefix shared by every number issued on t's date.
func Daily(kind string, t time.Time) string {
	return kind + "-" + t.Format("20060102") + "-"
}

// Next returns the number following last. An empty or foreign last starts
// the day at 001.
func Next(prefix, last string) string {
	n := 0
	if strings.HasPrefix(last, prefix) {
		if v, err := strconv.Atoi(strings.TrimPrefix(last, prefix)); err == nil {
			n = v
		}
	}
	return fmt.Sprintf("%s%03d", prefix, n+1)
}

// LastFunc returns the highest number already issued under prefix, or "".
type LastFunc func(ctx context.Context, prefix string) (string, error)

// Allocate hands successive candidate numbers to save until one is accepted.
// A save error wrapping ErrCollision re-reads the last number and retries.
func Allocate(ctx context.Context, prefix string, last LastFunc, save func(number string) error) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		latest, err := last(ctx, prefix)
		if err != nil {
			return "", fmt.Errorf("read last number for %s: %w", prefix, err)
		}
		number := Next(prefix, latest)
		err = save(number)
		if err == nil {
			return number, nil
		}
		if !errors.Is(err, ErrCollision) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w after %d attempts (%s)", ErrExhausted, MaxAttempts, prefix)
}
