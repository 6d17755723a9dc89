package sensor

import "testing"

func TestPollDetectsTransitions(t *testing.T) {
	c := NewChannel("nosepoke")

	if _, ok := c.Poll(false, 10); ok {
		t.Fatal("no transition expected while level unchanged")
	}

	tr, ok := c.Poll(true, 20)
	if !ok || tr.Kind != Entry || tr.AtMS != 20 {
		t.Fatalf("got %+v ok=%v, want entry at 20", tr, ok)
	}
	if !c.Engaged() || c.LastChangeMS() != 20 {
		t.Fatalf("engaged=%v lastChange=%d, want true/20", c.Engaged(), c.LastChangeMS())
	}

	if _, ok := c.Poll(true, 30); ok {
		t.Fatal("no transition expected while held")
	}

	tr, ok = c.Poll(false, 45)
	if !ok || tr.Kind != Exit || tr.AtMS != 45 {
		t.Fatalf("got %+v ok=%v, want exit at 45", tr, ok)
	}
	if c.Engaged() || c.LastChangeMS() != 45 {
		t.Fatalf("engaged=%v lastChange=%d, want false/45", c.Engaged(), c.LastChangeMS())
	}
}

func TestForceRelease(t *testing.T) {
	c := NewChannel("lick")

	if _, ok := c.ForceRelease(5); ok {
		t.Fatal("force release on disengaged channel must be a no-op")
	}

	c.Poll(true, 10)
	tr, ok := c.ForceRelease(99)
	if !ok || tr.Kind != Exit || tr.AtMS != 99 {
		t.Fatalf("got %+v ok=%v, want exit at 99", tr, ok)
	}
	if c.Engaged() {
		t.Fatal("channel still engaged after force release")
	}
}
