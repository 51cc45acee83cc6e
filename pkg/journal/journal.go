// Package journal tails the system journal as a subprocess stream,
// delivering lines over a channel until the context is cancelled.
package journal

import (
	"bufio"
	"context"
	"io"
	"os/exec"

	"github.com/dotpilot-sh/dotpilot/pkg/errors"
	"github.com/dotpilot-sh/dotpilot/pkg/logging"
)

// Source selects which journal stream to follow
type Source struct {
	// Kernel follows kernel messages (journalctl -k)
	Kernel bool

	// Unit restricts the stream to one systemd unit
	Unit string
}

// Args builds the journalctl argument list for this source
func (s Source) Args() []string {
	args := []string{"-f", "--no-pager", "-o", "short-monotonic"}
	if s.Kernel {
		args = append(args, "-k")
	}
	if s.Unit != "" {
		args = append(args, "-u", s.Unit)
	}
	return args
}

// Follower streams journal lines. The zero value is not usable; use
// Follow to start one.
type Follower struct {
	lines <-chan string
}

// Lines returns the channel of streamed journal lines. It closes when
// the subprocess exits or the context is cancelled.
func (f *Follower) Lines() <-chan string {
	return f.lines
}

// Follow starts journalctl for the source and streams its output.
// Cancelling the context kills the subprocess and closes the channel.
func Follow(ctx context.Context, source Source) (*Follower, error) {
	args := source.Args()
	logging.LogCommand("journalctl", args)

	cmd := exec.CommandContext(ctx, "journalctl", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCommandRun, "failed to open journalctl stdout")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCommandRun, "failed to start journalctl")
	}

	follower := &Follower{lines: stream(ctx, stdout, func() { _ = cmd.Wait() })}
	return follower, nil
}

// FollowReader streams lines from an arbitrary reader using the same
// plumbing as Follow. Used by tests and by replaying captured logs.
func FollowReader(ctx context.Context, r io.Reader) *Follower {
	return &Follower{lines: stream(ctx, r, nil)}
}

func stream(ctx context.Context, r io.Reader, onDone func()) <-chan string {
	logger := logging.GetLogger("journal")
	lines := make(chan string)

	go func() {
		defer close(lines)
		if onDone != nil {
			defer onDone()
		}

		scanner := bufio.NewScanner(r)
		// Journal lines can be long; give the scanner room.
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("Journal stream ended with error")
		}
	}()

	return lines
}
