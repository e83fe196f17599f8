package primitives

import (
	"errors"
	"strings"
	"testing"
)

func TestAssignable(t *testing.T) {
	cases := []struct {
		from, to DataType
		want     bool
	}{
		{TypeInt, TypeInt, true},
		{TypeInt, TypeFloat, true},
		{TypeFloat, TypeInt, false},
		{TypeAny, TypeString, true},
		{TypeString, TypeAny, true},
		{TypeString, TypeInt, false},
		{TypeBool, TypeBool, true},
	}
	for _, c := range cases {
		if got := Assignable(c.from, c.to); got != c.want {
			t.Errorf("Assignable(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestValueNativeRoundTrip(t *testing.T) {
	in := map[string]any{"a": int64(1), "b": "x", "c": true, "d": []any{int64(1), "y"}}
	v := FromNative(in)
	if v.Type != TypeMap {
		t.Fatalf("expected map type, got %s", v.Type)
	}
	out := v.Native().(map[string]any)
	if out["b"] != "x" || out["c"] != true {
		t.Errorf("round trip mismatch: %#v", out)
	}
}

func TestValueIsNull(t *testing.T) {
	if !Null.IsNull() {
		t.Error("Null.IsNull() should be true")
	}
	if IntValue(0).IsNull() {
		t.Error("IntValue(0) must not be null: 0 is a valid int, not absence")
	}
}

func TestErrorValue(t *testing.T) {
	v := ErrorValue(errors.New("boom"))
	if v.Str != "boom" {
		t.Errorf("ErrorValue: got %q", v.Str)
	}
	if !ErrorValue(nil).IsNull() {
		t.Error("ErrorValue(nil) should be null")
	}
}

func TestValidateNameRejectsSeparator(t *testing.T) {
	if err := ValidateName("good_name"); err != nil {
		t.Errorf("good_name should validate: %v", err)
	}
	err := ValidateName("bad/name")
	if err == nil {
		t.Fatal("expected IllegalName error")
	}
	if !errors.Is(err, ErrIllegalName) {
		t.Errorf("expected ErrIllegalName, got %v", err)
	}
	if err := ValidateName(""); err == nil {
		t.Error("empty name should be illegal")
	}
}

func TestReservedOutcomes(t *testing.T) {
	outs := ReservedOutcomes()
	if len(outs) != 2 {
		t.Fatalf("expected 2 reserved outcomes, got %d", len(outs))
	}
	for _, o := range outs {
		if !IsReserved(o.ID) {
			t.Errorf("outcome %+v should be reserved", o)
		}
	}
	if IsReserved(0) {
		t.Error("outcome 0 must not be reserved")
	}
}

func TestNewShortIDAvoidsCollisions(t *testing.T) {
	existing := map[string]struct{}{}
	for i := 0; i < 500; i++ {
		id := NewShortID(existing)
		if _, dup := existing[id]; dup {
			t.Fatalf("NewShortID produced a duplicate: %s", id)
		}
		if len(id) != 8 {
			t.Fatalf("expected 8-char id, got %q", id)
		}
		existing[id] = struct{}{}
	}
}

func TestJoinSplitPath(t *testing.T) {
	p := JoinPath("root", "child", "grandchild")
	if p != "root/child/grandchild" {
		t.Fatalf("unexpected path: %s", p)
	}
	segs := SplitPath(p)
	if strings.Join(segs, ",") != "root,child,grandchild" {
		t.Fatalf("unexpected segments: %v", segs)
	}
	if SplitPath("") != nil {
		t.Error("SplitPath(\"\") should be nil")
	}
}

func TestStructuralErrorUnwrap(t *testing.T) {
	err := NewStructuralError(KindDuplicateName, "AddPort", "port foo already exists")
	if !errors.Is(err, ErrDuplicateName) {
		t.Error("expected errors.Is to match ErrDuplicateName")
	}
	if !strings.Contains(err.Error(), "AddPort") {
		t.Errorf("error message should include op: %s", err.Error())
	}
}
