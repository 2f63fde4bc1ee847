package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/signal"
	"github.com/jpalmerr/envmon/internal/state"
)

func startTask(t *testing.T, task *Task) (context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- task.Run(ctx)
	}()
	return cancel, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not met before timeout")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTask_RendersOnSignal(t *testing.T) {
	cell := state.NewCell()
	ch := signal.New()
	r := &recordingRenderer{}

	cancel, done := startTask(t, &Task{Name: "test", Signal: ch, State: cell.Reader(), Renderer: r, Logger: testLogger()})
	defer cancel()

	cell.Publish(climate.NewReading(20, 40), climate.Normal, time.Now())
	ch.Notify()

	waitFor(t, func() bool { return len(r.rendered()) == 1 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancel", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

// TestTask_SeesLatestSnapshot verifies coalescing: a slow renderer woken once
// for several publications renders only the newest one next.
func TestTask_SeesLatestSnapshot(t *testing.T) {
	cell := state.NewCell()
	ch := signal.New()
	r := &recordingRenderer{delay: 50 * time.Millisecond}

	cancel, _ := startTask(t, &Task{Name: "slow", Signal: ch, State: cell.Reader(), Renderer: r, Logger: testLogger()})
	defer cancel()

	cell.Publish(climate.NewReading(20, 40), climate.Normal, time.Now())
	ch.Notify()

	// wait until the renderer is busy with seq 1, then publish 2..5
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 4; i++ {
		cell.Publish(climate.NewReading(21+float64(i), 40), climate.Normal, time.Now())
		ch.Notify()
	}

	waitFor(t, func() bool { return len(r.rendered()) >= 2 })
	time.Sleep(100 * time.Millisecond)

	got := r.rendered()
	if len(got) != 2 {
		t.Fatalf("rendered seqs = %v, want exactly 2 renders", got)
	}
	if got[1] != 5 {
		t.Errorf("second render saw seq %d, want 5", got[1])
	}
}

func TestTask_RenderOnStart(t *testing.T) {
	cell := state.NewCell()
	r := &recordingRenderer{}

	cancel, _ := startTask(t, &Task{Name: "display", Signal: signal.New(), State: cell.Reader(), Renderer: r, RenderOnStart: true, Logger: testLogger()})
	defer cancel()

	waitFor(t, func() bool { return len(r.rendered()) == 1 })
	if got := r.rendered(); got[0] != 0 {
		t.Errorf("start render saw seq %d, want 0", got[0])
	}
}

func TestTask_PanicDoesNotKillLoop(t *testing.T) {
	cell := state.NewCell()
	ch := signal.New()
	r := &recordingRenderer{panic: true}

	cancel, _ := startTask(t, &Task{Name: "fragile", Signal: ch, State: cell.Reader(), Renderer: r, Logger: testLogger()})
	defer cancel()

	ch.Notify()
	waitFor(t, func() bool { return len(r.rendered()) == 1 })
	ch.Notify()
	waitFor(t, func() bool { return len(r.rendered()) == 2 })
}

func TestTask_InitFailureLeavesConsumerInert(t *testing.T) {
	led := &fakeLED{initErr: errors.New("gpio busy")}
	ch := signal.New()

	cancel, done := startTask(t, &Task{
		Name:     "led",
		Signal:   ch,
		State:    state.NewCell().Reader(),
		Renderer: NewLEDModulator(led, DefaultBlinkLadder()),
		Logger:   testLogger(),
	})
	defer cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Run() error = nil, want init error")
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after init failure")
	}

	// notifying an inert consumer must not block the producer
	ch.Notify()
	ch.Notify()
	if got := led.history(); len(got) != 0 {
		t.Errorf("inert LED received SetLit calls: %v", got)
	}
}
