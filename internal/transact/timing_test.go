package transact

import (
	"testing"
	"time"
)

func TestFrameBits(t *testing.T) {
	if got := FrameBits(8, 2, false); got != 11 {
		t.Errorf("FrameBits(8,2,no parity) = %d, want 11", got)
	}
	if got := FrameBits(7, 1, true); got != 10 {
		t.Errorf("FrameBits(7,1,parity) = %d, want 10", got)
	}
}

func TestCharDuration(t *testing.T) {
	// 11 bits at 9600 baud is a little over a millisecond per character.
	d := CharDuration(9600, 11)
	if d < time.Millisecond || d > 2*time.Millisecond {
		t.Errorf("CharDuration(9600,11) = %v", d)
	}
	if CharDuration(0, 11) != 0 {
		t.Error("zero baud must not divide")
	}
}

func TestTransferTimeIncludesMargin(t *testing.T) {
	raw := 20 * CharDuration(9600, 11)
	got := TransferTime(9600, 11, 20)
	if got <= raw {
		t.Errorf("TransferTime = %v, want above raw wire time %v", got, raw)
	}
	if got > raw+raw/5 {
		t.Errorf("TransferTime = %v, margin too large over %v", got, raw)
	}
}

func TestReplyBudgetFloor(t *testing.T) {
	eng := New(&fakePort{}, Config{
		BaudRate:  9600,
		DataBits:  8,
		StopBits:  2,
		ReadFloor: 500 * time.Millisecond,
	})
	if got := eng.replyBudget(5); got != 500*time.Millisecond {
		t.Errorf("short command budget = %v, want the floor", got)
	}

	eng = New(&fakePort{}, Config{BaudRate: 9600, DataBits: 8, StopBits: 2})
	got := eng.replyBudget(10)
	want := TransferTime(9600, 11, 10+2+48+2)
	if got != want {
		t.Errorf("budget = %v, want %v", got, want)
	}
}
