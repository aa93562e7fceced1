package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a status line on stderr while a slow step runs.
// The animation ends with Stop or when the context passed to newSpinner
// is cancelled, whichever comes first.
type Spinner struct {
	out  io.Writer
	ctx  context.Context
	quit chan struct{}
	exit chan struct{}
	once sync.Once

	mu      sync.Mutex
	message string
	width   int // widest line drawn so far, for clearing
}

func newSpinner(ctx context.Context, message string) *Spinner {
	return &Spinner{
		out:     os.Stderr,
		ctx:     ctx,
		quit:    make(chan struct{}),
		exit:    make(chan struct{}),
		message: message,
	}
}

// Start begins the animation. Call Stop exactly once afterwards.
func (s *Spinner) Start() {
	go func() {
		defer close(s.exit)
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()

		for frame := 0; ; frame++ {
			select {
			case <-s.quit:
				return
			case <-s.ctx.Done():
				s.clear()
				return
			case <-tick.C:
				s.draw(spinnerFrames[frame%len(spinnerFrames)])
			}
		}
	}()
}

// SetMessage replaces the text next to the animation.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and clears the line. Further calls do nothing.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.quit)
		<-s.exit
		s.clear()
	})
}

// StopWithError stops the spinner and prints message as an error.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, len(s.message)+2)
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", max(s.width, len(s.message)+2)))
}
