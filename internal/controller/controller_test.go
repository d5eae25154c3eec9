package controller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"psud/internal/controller"
	"psud/internal/psu"
	"psud/internal/store"
	"psud/internal/testsupport"
)

type fakeDevice struct {
	state       psu.DeviceState
	snapshotErr error
	setErr      error
	calls       []string
}

func (d *fakeDevice) Snapshot() (psu.DeviceState, error) {
	d.calls = append(d.calls, "snapshot")
	if d.snapshotErr != nil {
		return psu.DeviceState{}, d.snapshotErr
	}
	state := d.state
	state.TakenAt = time.Now()
	return state, nil
}

func (d *fakeDevice) SetVoltage(volts float64) (float64, error) {
	d.calls = append(d.calls, "set voltage")
	if d.setErr != nil {
		return 0, d.setErr
	}
	d.state.VoltageSetting = volts
	return volts, nil
}

func (d *fakeDevice) SetCurrentLimit(amps float64) (float64, error) {
	d.calls = append(d.calls, "set current")
	if d.setErr != nil {
		return 0, d.setErr
	}
	d.state.CurrentLimit = amps
	return amps, nil
}

func (d *fakeDevice) SetPower(on bool) (bool, error) {
	d.calls = append(d.calls, "set power")
	if d.setErr != nil {
		return false, d.setErr
	}
	d.state.Output = on
	return on, nil
}

func newFixture(t *testing.T) (*controller.Controller, *fakeDevice, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	dev := &fakeDevice{state: psu.DeviceState{Terminal: "P25V", VoltageSetting: 2.5}}
	return controller.New(dev, st, nil), dev, st
}

func TestUpdateTickMirrorsState(t *testing.T) {
	ctrl, _, st := newFixture(t)
	ctx := context.Background()

	if err := ctrl.UpdateTick(ctx); err != nil {
		t.Fatalf("UpdateTick failed: %v", err)
	}

	state, err := st.State(ctx)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state.VoltageSetting != 2.5 || state.Terminal != "P25V" {
		t.Errorf("mirrored state = %#v", state)
	}
}

func TestUpdateTickPropagatesDeviceFailure(t *testing.T) {
	ctrl, dev, _ := newFixture(t)
	dev.snapshotErr = errors.New("no reply")

	if err := ctrl.UpdateTick(context.Background()); err == nil {
		t.Fatal("device failure must propagate")
	}
}

func TestCommandTickSetVoltage(t *testing.T) {
	ctrl, dev, st := newFixture(t)
	ctx := context.Background()

	id := testsupport.Enqueue(t, st, store.KindSetVoltage, "3.3")
	if err := ctrl.CommandTick(ctx); err != nil {
		t.Fatalf("CommandTick failed: %v", err)
	}
	if dev.state.VoltageSetting != 3.3 {
		t.Errorf("voltage = %v", dev.state.VoltageSetting)
	}

	// Closed with an OK result, not requeued.
	if err := st.CloseCommand(ctx, id, "again"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("command not closed: %v", err)
	}
	cmd, err := st.NextCommand(ctx)
	if err != nil || cmd != nil {
		t.Errorf("queue not drained: %#v, %v", cmd, err)
	}
}

func TestCommandTickConsumesFailedCommandOnce(t *testing.T) {
	ctrl, dev, st := newFixture(t)
	ctx := context.Background()
	dev.setErr = errors.New("readback mismatch")

	testsupport.Enqueue(t, st, store.KindSetPower, "ON")
	if err := ctrl.CommandTick(ctx); err != nil {
		t.Fatalf("CommandTick failed: %v", err)
	}

	// The failed command must not come back on the next slot.
	cmd, err := st.NextCommand(ctx)
	if err != nil || cmd != nil {
		t.Fatalf("failed command requeued: %#v, %v", cmd, err)
	}
}

func TestCommandTickBadValueClosesCommand(t *testing.T) {
	ctrl, dev, st := newFixture(t)
	ctx := context.Background()

	testsupport.Enqueue(t, st, store.KindSetVoltage, "three volts")
	if err := ctrl.CommandTick(ctx); err != nil {
		t.Fatalf("CommandTick failed: %v", err)
	}
	if len(dev.calls) != 0 {
		t.Errorf("device touched for unparseable value: %v", dev.calls)
	}
	cmd, err := st.NextCommand(ctx)
	if err != nil || cmd != nil {
		t.Fatalf("bad command requeued: %#v, %v", cmd, err)
	}
}

func TestCommandTickUnknownKind(t *testing.T) {
	ctrl, dev, st := newFixture(t)
	ctx := context.Background()

	testsupport.Enqueue(t, st, "CALIBRATE", "")
	if err := ctrl.CommandTick(ctx); err != nil {
		t.Fatalf("CommandTick failed: %v", err)
	}
	if len(dev.calls) != 0 {
		t.Errorf("device touched for unknown kind: %v", dev.calls)
	}
}

func TestCommandTickPowerValues(t *testing.T) {
	ctrl, dev, st := newFixture(t)
	ctx := context.Background()

	for _, value := range []string{"ON", "on", "1"} {
		testsupport.Enqueue(t, st, store.KindSetPower, value)
		if err := ctrl.CommandTick(ctx); err != nil {
			t.Fatalf("CommandTick(%q) failed: %v", value, err)
		}
		if !dev.state.Output {
			t.Errorf("output off after %q", value)
		}
		dev.state.Output = false
	}
}

func TestCommandTickEmptyQueueIsQuiet(t *testing.T) {
	ctrl, dev, _ := newFixture(t)
	if err := ctrl.CommandTick(context.Background()); err != nil {
		t.Fatalf("CommandTick failed: %v", err)
	}
	if len(dev.calls) != 0 {
		t.Errorf("device touched with empty queue: %v", dev.calls)
	}
}
