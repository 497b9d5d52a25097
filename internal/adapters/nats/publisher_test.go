package natsadapter

import "testing"

func TestSubjects(t *testing.T) {
	if got := StateSubject("abc"); got != "map.session.abc.state" {
		t.Errorf("unexpected state subject %q", got)
	}
	if got := ClosedSubject("abc"); got != "map.session.abc.closed" {
		t.Errorf("unexpected closed subject %q", got)
	}
}

func TestNewPublisher_Unreachable(t *testing.T) {
	pub, err := NewPublisher("nats://127.0.0.1:1")
	if err == nil {
		pub.Close()
		t.Fatal("expected an error when no server is listening")
	}
}
