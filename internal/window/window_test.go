package window

import "testing"

func TestPhaseExclusivity(t *testing.T) {
	var w Window

	if !w.Idle() || w.Armed() || w.Active() {
		t.Fatal("zero-value window must be idle")
	}

	w.Arm(100)
	if !w.Armed() || w.Active() || w.Idle() {
		t.Fatal("armed window must be armed only")
	}
	if w.StartMS() != 100 {
		t.Fatalf("start %d, want 100", w.StartMS())
	}

	w.Activate(250)
	if !w.Active() || w.Armed() || w.Idle() {
		t.Fatal("active window must be active only")
	}
	if w.EndMS() != 250 {
		t.Fatalf("end %d, want 250", w.EndMS())
	}

	w.Disarm()
	if !w.Idle() {
		t.Fatal("disarmed window must be idle")
	}
}

func TestDueAndExpired(t *testing.T) {
	var w Window

	w.Arm(100)
	if w.Due(99) {
		t.Fatal("due before start")
	}
	if !w.Due(100) {
		t.Fatal("not due at start")
	}
	if w.Expired(1000) {
		t.Fatal("armed window cannot be expired")
	}

	w.Activate(200)
	if w.Expired(199) {
		t.Fatal("expired before end")
	}
	if !w.Expired(200) {
		t.Fatal("not expired at end")
	}
	if w.Due(1000) {
		t.Fatal("active window cannot be due")
	}
}

func TestDisarmIsReusable(t *testing.T) {
	var w Window
	for i := 0; i < 3; i++ {
		w.Arm(int64(i * 10))
		w.Activate(int64(i*10 + 5))
		w.Disarm()
		if !w.Idle() || w.StartMS() != 0 || w.EndMS() != 0 {
			t.Fatalf("cycle %d: window not fully reset", i)
		}
	}
}
