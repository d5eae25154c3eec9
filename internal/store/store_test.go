package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"psud/internal/psu"
	"psud/internal/store"
	"psud/internal/testsupport"
)

func TestOpenAppliesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	id := testsupport.Enqueue(t, st, store.KindSetVoltage, "3.3")
	if id == 0 {
		t.Fatal("expected command ID to be assigned")
	}

	// Reopening the same file must accept the existing schema.
	st2, err := store.OpenPath(cfg.Daemon.DatabaseFile)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()

	n, err := st2.PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}
}

func TestStateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.State(ctx); !errors.Is(err, store.ErrNoState) {
		t.Fatalf("State on empty db = %v, want ErrNoState", err)
	}

	want := psu.DeviceState{
		Output:          true,
		VoltageSetting:  2.5,
		CurrentLimit:    0.1,
		MeasuredVoltage: 2.4985,
		MeasuredCurrent: 0.005894107,
		Terminal:        "P25V",
		TakenAt:         time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := st.WriteState(ctx, want); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}

	got, err := st.State(ctx)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if !got.Output || got.VoltageSetting != want.VoltageSetting ||
		got.MeasuredCurrent != want.MeasuredCurrent || got.Terminal != want.Terminal {
		t.Fatalf("state = %#v", got)
	}
	if !got.TakenAt.Equal(want.TakenAt) {
		t.Errorf("TakenAt = %v, want %v", got.TakenAt, want.TakenAt)
	}

	// A second write replaces the single row.
	want.Output = false
	want.TakenAt = want.TakenAt.Add(time.Second)
	if err := st.WriteState(ctx, want); err != nil {
		t.Fatalf("second WriteState failed: %v", err)
	}
	got, err = st.State(ctx)
	if err != nil {
		t.Fatalf("State after rewrite failed: %v", err)
	}
	if got.Output {
		t.Error("rewrite did not replace the row")
	}
}

func TestClearState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.WriteState(ctx, psu.DeviceState{Terminal: "P25V", TakenAt: time.Now()}); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}
	if err := st.ClearState(ctx); err != nil {
		t.Fatalf("ClearState failed: %v", err)
	}
	if _, err := st.State(ctx); !errors.Is(err, store.ErrNoState) {
		t.Fatalf("State after clear = %v, want ErrNoState", err)
	}
}

func TestCommandQueueOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.Enqueue(t, st, store.KindSetVoltage, "3.3")
	second := testsupport.Enqueue(t, st, store.KindSetPower, "ON")

	cmd, err := st.NextCommand(ctx)
	if err != nil {
		t.Fatalf("NextCommand failed: %v", err)
	}
	if cmd == nil || cmd.ID != first {
		t.Fatalf("next = %#v, want id %d", cmd, first)
	}
	if cmd.Kind != store.KindSetVoltage || cmd.Value != "3.3" {
		t.Fatalf("cmd = %#v", cmd)
	}

	if err := st.CloseCommand(ctx, cmd.ID, "OK 3.300"); err != nil {
		t.Fatalf("CloseCommand failed: %v", err)
	}

	cmd, err = st.NextCommand(ctx)
	if err != nil {
		t.Fatalf("NextCommand failed: %v", err)
	}
	if cmd == nil || cmd.ID != second {
		t.Fatalf("next = %#v, want id %d", cmd, second)
	}

	if err := st.CloseCommand(ctx, cmd.ID, "readback mismatch"); err != nil {
		t.Fatalf("CloseCommand failed: %v", err)
	}

	cmd, err = st.NextCommand(ctx)
	if err != nil {
		t.Fatalf("NextCommand failed: %v", err)
	}
	if cmd != nil {
		t.Fatalf("drained queue returned %#v", cmd)
	}
}

func TestCloseCommandIsExactlyOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id := testsupport.Enqueue(t, st, store.KindSetPower, "OFF")
	if err := st.CloseCommand(ctx, id, "OK"); err != nil {
		t.Fatalf("CloseCommand failed: %v", err)
	}
	if err := st.CloseCommand(ctx, id, "OK again"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second close = %v, want ErrNotFound", err)
	}
	if err := st.CloseCommand(ctx, 9999, "OK"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown id close = %v, want ErrNotFound", err)
	}
}
