// Package runner invokes the scrape CLI as a batch subprocess, guarded by
// a file lock so two pulls can never overlap, and reads the appended count
// off its stdout. The "appended N records" line is the process contract;
// changing it breaks every consumer of this package.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning means another pull holds the run lock.
var ErrAlreadyRunning = errors.New("a pull is already running")

var appendedRe = regexp.MustCompile(`(?i)appended\s+(\d+)\s+records`)

// ParseAppended finds the last "appended N records" line in out.
func ParseAppended(out string) (int, bool) {
	ms := appendedRe.FindAllStringSubmatch(out, -1)
	if len(ms) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(ms[len(ms)-1][1])
	if err != nil {
		return 0, false
	}
	return n, true
}

type Result struct {
	Appended int
	Stdout   string
	Stderr   string
}

type Runner struct {
	Bin      string   // scrape binary
	Args     []string
	LockPath string   // e.g. <data_dir>/scrape.lock
}

// Run spawns the scraper and blocks until it exits. The returned error
// distinguishes the interesting failure modes: ErrAlreadyRunning, a spawn
// or lock problem, or a non-zero exit (an *exec.ExitError wrapped with the
// captured stderr).
func (r Runner) Run(ctx context.Context) (Result, error) {
	fl := flock.New(r.LockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return Result{}, ErrAlreadyRunning
	}
	defer func() { _ = fl.Unlock() }()

	cmd := exec.CommandContext(ctx, r.Bin, r.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr != nil {
		return res, fmt.Errorf("scrape command failed: %w (stderr: %s)", runErr, res.Stderr)
	}

	n, ok := ParseAppended(res.Stdout)
	if !ok {
		return res, errors.New("scrape output missing appended count")
	}
	res.Appended = n
	return res, nil
}
