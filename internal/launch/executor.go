package launch

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// DefaultGracePeriod is how long an interrupted child gets to exit on its
// own before it is killed.
const DefaultGracePeriod = 10 * time.Second

// CommandExecutor runs one built command.
// This abstraction enables unit testing without spawning processes.
type CommandExecutor interface {
	// Run blocks until the command exits. Cancelling ctx interrupts it.
	Run(ctx context.Context) error

	// SetIO attaches the standard streams.
	SetIO(stdin io.Reader, stdout, stderr io.Writer)
}

// CommandBuilder creates executors.
type CommandBuilder interface {
	BuildCommand(name string, args ...string) CommandExecutor
}

// RealCommandExecutor wraps exec.Cmd to implement CommandExecutor.
type RealCommandExecutor struct {
	cmd   *exec.Cmd
	grace time.Duration
}

// Run starts the command and waits for it. On cancellation the child is
// sent an interrupt, then killed after the grace period.
func (r *RealCommandExecutor) Run(ctx context.Context) error {
	if err := r.cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- r.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	_ = r.cmd.Process.Signal(os.Interrupt)
	select {
	case err := <-done:
		return err
	case <-time.After(r.grace):
		_ = r.cmd.Process.Kill()
		return <-done
	}
}

// SetIO attaches the standard streams.
func (r *RealCommandExecutor) SetIO(stdin io.Reader, stdout, stderr io.Writer) {
	r.cmd.Stdin = stdin
	r.cmd.Stdout = stdout
	r.cmd.Stderr = stderr
}

// RealCommandBuilder implements CommandBuilder using exec.Command.
type RealCommandBuilder struct {
	GracePeriod time.Duration
}

// NewRealCommandBuilder creates a new RealCommandBuilder.
func NewRealCommandBuilder() *RealCommandBuilder {
	return &RealCommandBuilder{GracePeriod: DefaultGracePeriod}
}

// BuildCommand creates a CommandExecutor for the given command and arguments.
func (b *RealCommandBuilder) BuildCommand(name string, args ...string) CommandExecutor {
	grace := b.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &RealCommandExecutor{cmd: exec.Command(name, args...), grace: grace}
}

// MockExitError mimics *exec.ExitError for tests.
type MockExitError struct {
	Code int
}

func (e *MockExitError) Error() string { return "exit status " + strconv.Itoa(e.Code) }

// ExitCode returns the configured exit code.
func (e *MockExitError) ExitCode() int { return e.Code }

// MockCommandExecutor implements CommandExecutor for testing.
type MockCommandExecutor struct {
	// Output is written to stdout when Run is called.
	Output []byte
	// Err is the error to return from Run.
	Err error
	// RunFunc, when set, replaces the canned behaviour.
	RunFunc func(ctx context.Context) error
	// RunCalled indicates whether Run was called.
	RunCalled bool

	stdout io.Writer
}

// Run writes Output and returns Err.
func (m *MockCommandExecutor) Run(ctx context.Context) error {
	m.RunCalled = true
	if m.stdout != nil && len(m.Output) > 0 {
		_, _ = m.stdout.Write(m.Output)
	}
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return m.Err
}

// SetIO records stdout.
func (m *MockCommandExecutor) SetIO(stdin io.Reader, stdout, stderr io.Writer) {
	m.stdout = stdout
}

// MockCommandBuilder implements CommandBuilder for testing.
type MockCommandBuilder struct {
	// Commands records all commands that were built.
	Commands []Command
	// NextExecutor is the next executor to return. If nil, a default
	// MockCommandExecutor is created.
	NextExecutor *MockCommandExecutor
}

// NewMockCommandBuilder creates a new MockCommandBuilder.
func NewMockCommandBuilder() *MockCommandBuilder {
	return &MockCommandBuilder{}
}

// BuildCommand records the command and returns the next executor.
func (b *MockCommandBuilder) BuildCommand(name string, args ...string) CommandExecutor {
	b.Commands = append(b.Commands, Command{Name: name, Args: args})
	if b.NextExecutor != nil {
		e := b.NextExecutor
		b.NextExecutor = nil
		return e
	}
	return &MockCommandExecutor{}
}

// LastCommand returns the most recently built command, or nil if none.
func (b *MockCommandBuilder) LastCommand() *Command {
	if len(b.Commands) == 0 {
		return nil
	}
	return &b.Commands[len(b.Commands)-1]
}
