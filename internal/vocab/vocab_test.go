package vocab

import (
	"errors"
	"testing"
)

func TestFit_SortsAndDeduplicates(t *testing.T) {
	v := Fit([]string{"diatom", "copepod", "diatom", "ciliate", "copepod"})
	want := []string{"ciliate", "copepod", "diatom"}

	if v.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", v.Len(), len(want))
	}
	for i, l := range v.Labels() {
		if l != want[i] {
			t.Errorf("Labels()[%d] = %q, want %q", i, l, want[i])
		}
	}
}

func TestFit_Deterministic(t *testing.T) {
	a := Fit([]string{"b", "a", "c"})
	b := Fit([]string{"c", "b", "a", "a"})
	for _, label := range []string{"a", "b", "c"} {
		ca, _ := a.Encode(label)
		cb, _ := b.Encode(label)
		if ca != cb {
			t.Errorf("code for %q differs between fits: %d vs %d", label, ca, cb)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	labels := []string{"ciliate", "copepod", "detritus", "diatom"}
	v := Fit(labels)
	for _, label := range labels {
		code, err := v.Encode(label)
		if err != nil {
			t.Fatalf("Encode(%q): %v", label, err)
		}
		back, err := v.Decode(code)
		if err != nil {
			t.Fatalf("Decode(%d): %v", code, err)
		}
		if back != label {
			t.Errorf("round trip %q -> %d -> %q", label, code, back)
		}
	}
}

func TestEncode_UnknownLabel(t *testing.T) {
	v := Fit([]string{"a", "b"})
	if _, err := v.Encode("z"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestDecode_OutOfRange(t *testing.T) {
	v := Fit([]string{"a", "b"})
	for _, code := range []int{-1, 2, 100} {
		if _, err := v.Decode(code); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Decode(%d): expected ErrIndexOutOfRange, got %v", code, err)
		}
	}
}

func TestFromClasses_PreservesOrder(t *testing.T) {
	v, err := FromClasses([]string{"diatom", "ciliate", "copepod"})
	if err != nil {
		t.Fatal(err)
	}
	// Model order, not sorted order.
	label, err := v.Decode(0)
	if err != nil {
		t.Fatal(err)
	}
	if label != "diatom" {
		t.Errorf("Decode(0) = %q, want %q", label, "diatom")
	}
}

func TestFromClasses_RejectsDuplicates(t *testing.T) {
	if _, err := FromClasses([]string{"a", "b", "a"}); err == nil {
		t.Error("expected error for duplicate class name")
	}
}

func TestRemap_TotalOverModelClasses(t *testing.T) {
	model, err := FromClasses([]string{"D", "B", "A", "C"})
	if err != nil {
		t.Fatal(err)
	}
	// Unified = model classes ∪ dataset labels; every model index must land
	// on a valid unified code.
	unified := Fit([]string{"A", "B", "C", "D", "E"})

	for i := 0; i < model.Len(); i++ {
		code, err := Remap(model, unified, i)
		if err != nil {
			t.Fatalf("Remap(%d): %v", i, err)
		}
		if code < 0 || code >= unified.Len() {
			t.Errorf("Remap(%d) = %d, outside [0,%d)", i, code, unified.Len())
		}
		modelLabel, _ := model.Decode(i)
		unifiedLabel, _ := unified.Decode(code)
		if modelLabel != unifiedLabel {
			t.Errorf("Remap(%d) landed on %q, want %q", i, unifiedLabel, modelLabel)
		}
	}
}

func TestRemap_InvalidIndex(t *testing.T) {
	model, _ := FromClasses([]string{"A", "B"})
	unified := Fit([]string{"A", "B"})
	if _, err := Remap(model, unified, 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}
