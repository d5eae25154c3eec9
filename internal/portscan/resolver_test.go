package portscan

import (
	"errors"
	"testing"
)

func TestFixedResolve(t *testing.T) {
	device, err := Fixed("/dev/ttyUSB0").Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if device != "/dev/ttyUSB0" {
		t.Errorf("device = %q", device)
	}

	if _, err := Fixed("  ").Resolve(); !errors.Is(err, ErrNoPort) {
		t.Errorf("blank device err = %v, want ErrNoPort", err)
	}
}

func TestAutoResolveFindsInstrument(t *testing.T) {
	list := func() ([]string, error) {
		return []string{"/dev/ttyS0", "/dev/ttyUSB0", "/dev/ttyUSB1"}, nil
	}
	var probed []string
	probe := func(device string) (bool, error) {
		probed = append(probed, device)
		if device == "/dev/ttyS0" {
			return false, errors.New("permission denied")
		}
		return device == "/dev/ttyUSB1", nil
	}

	device, err := NewAuto(list, probe, nil).Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if device != "/dev/ttyUSB1" {
		t.Errorf("device = %q", device)
	}
	if len(probed) != 3 {
		t.Errorf("probed = %v, probe errors must not stop the sweep", probed)
	}
}

func TestAutoResolveNoMatch(t *testing.T) {
	list := func() ([]string, error) { return []string{"/dev/ttyS0"}, nil }
	probe := func(string) (bool, error) { return false, nil }

	if _, err := NewAuto(list, probe, nil).Resolve(); !errors.Is(err, ErrNoPort) {
		t.Fatalf("err = %v, want ErrNoPort", err)
	}
}

func TestAutoResolveEmptyHost(t *testing.T) {
	list := func() ([]string, error) { return nil, nil }
	probe := func(string) (bool, error) { t.Fatal("probe called"); return false, nil }

	if _, err := NewAuto(list, probe, nil).Resolve(); !errors.Is(err, ErrNoPort) {
		t.Fatalf("err = %v, want ErrNoPort", err)
	}
}
