package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/r8k/webgraph/tree"
)

// SubprocessEngine describes how to invoke and adapt an external
// crawler binary (spec §4.7, §6.3): toc, onionsearch, or torbot.
type SubprocessEngine struct {
	Name       string
	Path       string
	Args       []string
	WorkDir    string
	Timeout    time.Duration
	ArtifactOf func() (string, error)         // returns the artifact path once the subprocess exits
	Adapt      func(artifactPath string) (*tree.Node, error)
}

// RunSubprocess adapts a SubprocessEngine into a runFunc: launches the
// binary, streams its output through log, waits up to Timeout, adapts
// the artifact on success, and publishes the resulting tree.
func (s *Supervisor) RunSubprocess(eng SubprocessEngine) runFunc {
	return func(ctx context.Context) error {
		timeout := eng.Timeout
		if timeout <= 0 {
			timeout = DefaultSubprocessTimeout
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, eng.Path, eng.Args...)
		cmd.Dir = eng.WorkDir

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("supervisor: %s: stdout pipe: %w", eng.Name, err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return fmt.Errorf("supervisor: %s: stderr pipe: %w", eng.Name, err)
		}

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("supervisor: %s: start: %w", eng.Name, err)
		}

		done := make(chan struct{})
		go streamLines(stdout, s.log.With().Str("engine", eng.Name).Str("stream", "stdout").Logger(), done)
		go streamLines(stderr, s.log.With().Str("engine", eng.Name).Str("stream", "stderr").Logger(), done)

		waitErr := cmd.Wait()
		<-done
		<-done

		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("supervisor: %s: timed out after %s", eng.Name, timeout)
		}
		if waitErr != nil {
			return fmt.Errorf("supervisor: %s: exited with error: %w", eng.Name, waitErr)
		}

		artifactPath, err := eng.ArtifactOf()
		if err != nil {
			return fmt.Errorf("supervisor: %s: artifact missing: %w", eng.Name, err)
		}
		defer os.Remove(artifactPath)

		result, err := eng.Adapt(artifactPath)
		if err != nil {
			return fmt.Errorf("supervisor: %s: adapt: %w", eng.Name, err)
		}

		if err := s.pub.Publish(result); err != nil {
			return fmt.Errorf("supervisor: %s: publish: %w", eng.Name, err)
		}
		return nil
	}
}

func streamLines(r io.Reader, log zerolog.Logger, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Info().Msg(scanner.Text())
	}
}
