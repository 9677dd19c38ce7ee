package rpc

import (
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Process is a spawned editor wired up over its stdio. Reads come from
// the editor's stdout, writes go to its stdin; stderr passes through
// to this process so editor diagnostics stay visible.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	waited chan error
}

// SpawnEditor starts bin in embedded mode with extraArgs appended.
func SpawnEditor(bin string, extraArgs ...string) (*Process, error) {
	args := append([]string{"--embed"}, extraArgs...)
	cmd := exec.Command(bin, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("rpc: spawn %s: %w", bin, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("rpc: spawn %s: %w", bin, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("rpc: spawn %s: %w", bin, err)
	}

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		waited: make(chan error, 1),
	}
	go func() { p.waited <- cmd.Wait() }()
	return p, nil
}

func (p *Process) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *Process) Write(b []byte) (int, error) { return p.stdin.Write(b) }

// Close shuts both pipes. The editor sees EOF on its stdin and exits;
// Wait collects it.
func (p *Process) Close() error {
	err := p.stdin.Close()
	if cerr := p.stdout.Close(); err == nil {
		err = cerr
	}
	return err
}

// Wait blocks until the editor exits and returns its status.
func (p *Process) Wait() error {
	return <-p.waited
}
