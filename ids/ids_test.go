package ids

import "testing"

func TestEphemeralRoundTrip(t *testing.T) {
	id := ClassId(42)
	if IsEphemeral(id) {
		t.Fatalf("fresh id should not be ephemeral")
	}

	eph := AsEphemeral(id)
	if !IsEphemeral(eph) {
		t.Fatalf("AsEphemeral should set the high bit")
	}

	if got := StripEphemeral(eph); got != id {
		t.Fatalf("StripEphemeral(%v) = %v, want %v", eph, got, id)
	}
}

func TestArityAC(t *testing.T) {
	if !AC.IsAC() {
		t.Fatalf("AC.IsAC() should be true")
	}
	if Arity(0).IsAC() {
		t.Fatalf("Arity(0).IsAC() should be false")
	}
	if Arity(2).IsAC() {
		t.Fatalf("Arity(2).IsAC() should be false")
	}
}
