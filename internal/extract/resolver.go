package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// toolRunner invokes the extraction tool once with the given arguments and
// returns stdout and stderr separately. The two streams must never be mixed:
// stdout carries the metadata document, stderr carries diagnostics for the
// error translator.
type toolRunner interface {
	Run(ctx context.Context, args []string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	binary string
}

func (r execRunner) Run(ctx context.Context, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Resolver fetches and normalizes media metadata by walking an ordered
// strategy list until one variant produces a parseable document.
type Resolver struct {
	runner      toolRunner
	strategies  []Strategy
	maxDuration int // seconds; 0 disables the ceiling
}

func NewResolver(binary string, strategies []Strategy, maxDurationSeconds int) *Resolver {
	return &Resolver{
		runner:      execRunner{binary: binary},
		strategies:  strategies,
		maxDuration: maxDurationSeconds,
	}
}

var metadataBaseArgs = []string{"--dump-json", "--no-playlist", "--no-warnings"}

// Resolve tries each strategy in order with its own bounded timeout. A
// strategy fails on nonzero exit, empty stdout, unparsable output, or
// timeout; failure of one strategy only advances to the next. On total
// exhaustion the error carries the category translated from the last
// strategy's diagnostics. A successful resolution is still rejected with
// CategoryTooLong when the reported duration exceeds the configured ceiling.
func (r *Resolver) Resolve(ctx context.Context, url string) (*Metadata, error) {
	if len(r.strategies) == 0 {
		return nil, wrapCategory(CategoryUnknown, errors.New("no extraction strategies configured"))
	}

	var lastStderr []byte
	for _, strategy := range r.strategies {
		meta, stderr, err := r.tryStrategy(ctx, strategy, url)
		if err == nil {
			if r.maxDuration > 0 && meta.Duration > r.maxDuration {
				return nil, wrapCategory(CategoryTooLong,
					fmt.Errorf("duration %ds exceeds ceiling %ds", meta.Duration, r.maxDuration))
			}
			return meta, nil
		}
		if ctx.Err() != nil {
			// Caller went away; stop walking the list.
			return nil, wrapCategory(CategoryUnknown, ctx.Err())
		}
		if len(stderr) > 0 {
			lastStderr = stderr
		} else {
			lastStderr = nil
		}
		logrus.WithFields(logrus.Fields{
			"strategy": strategy.Name,
			"url":      url,
		}).Debugf("strategy failed: %v", err)
	}

	category := Translate(string(lastStderr))
	return nil, wrapCategory(category,
		fmt.Errorf("all %d extraction strategies failed", len(r.strategies)))
}

func (r *Resolver) tryStrategy(ctx context.Context, strategy Strategy, url string) (*Metadata, []byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, strategy.Timeout)
	defer cancel()

	args := make([]string, 0, len(metadataBaseArgs)+len(strategy.Args)+1)
	args = append(args, metadataBaseArgs...)
	args = append(args, strategy.Args...)
	args = append(args, url)

	stdout, stderr, err := r.runner.Run(runCtx, args)
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, nil, fmt.Errorf("strategy %s timed out after %s", strategy.Name, strategy.Timeout)
	}
	if err != nil {
		return nil, stderr, fmt.Errorf("strategy %s: %w", strategy.Name, err)
	}
	if len(bytes.TrimSpace(stdout)) == 0 {
		return nil, stderr, fmt.Errorf("strategy %s produced no output", strategy.Name)
	}

	meta, err := parseMetadata(stdout)
	if err != nil {
		// Exit-success output that fails to parse is a strategy failure,
		// not a fatal error.
		return nil, stderr, fmt.Errorf("strategy %s: %w", strategy.Name, err)
	}
	return meta, nil, nil
}
