package card

import (
	"encoding/json"
	"testing"
)

func TestDecisionSetMembership(t *testing.T) {
	set := Decisions(Discard, LookAtOwn, BlindSwap)

	for _, d := range []Decision{Discard, LookAtOwn, BlindSwap} {
		if !set.Contains(d) {
			t.Errorf("set should contain %s", d)
		}
	}
	for _, d := range []Decision{Replace, LookAtOther, LookAndSwap} {
		if set.Contains(d) {
			t.Errorf("set should not contain %s", d)
		}
	}
}

func TestDecisionSetOnly(t *testing.T) {
	set := Only(Replace)
	if !set.Contains(Replace) {
		t.Error("Only(Replace) should contain Replace")
	}
	for _, d := range AllDecisions {
		if d != Replace && set.Contains(d) {
			t.Errorf("Only(Replace) should not contain %s", d)
		}
	}
}

func TestDecisionSetSlice(t *testing.T) {
	set := Decisions(LookAndSwap, Discard, LookAtOther)
	got := set.Slice()
	want := []Decision{Discard, LookAtOther, LookAndSwap}
	if len(got) != len(want) {
		t.Fatalf("Slice() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Slice() = %v, want %v", got, want)
		}
	}
	if EmptyDecisionSet.Slice() != nil {
		t.Error("empty set should yield nil slice")
	}
}

func TestValidSet(t *testing.T) {
	tests := []struct {
		name  string
		card  Card
		extra []Decision
	}{
		{"two", Normal(Hearts, Two), nil},
		{"six", Normal(Clubs, Six), nil},
		{"seven", Normal(Spades, Seven), []Decision{LookAtOwn}},
		{"eight", Normal(Hearts, Eight), []Decision{LookAtOwn}},
		{"nine", Normal(Diamonds, Nine), []Decision{LookAtOther}},
		{"ten", Normal(Clubs, Ten), []Decision{LookAtOther}},
		{"jack", Normal(Spades, Jack), []Decision{BlindSwap}},
		{"queen", Normal(Hearts, Queen), []Decision{BlindSwap}},
		{"king", Normal(Diamonds, King), []Decision{LookAndSwap}},
		{"ace", Normal(Spades, Ace), nil},
		{"joker", Joker(), nil},
	}

	for _, tt := range tests {
		set := ValidSet(tt.card)
		if !set.Contains(Discard) || !set.Contains(Replace) {
			t.Errorf("%s: every card must allow Discard and Replace", tt.name)
		}
		want := Decisions(Discard, Replace)
		for _, d := range tt.extra {
			want = want.With(d)
		}
		if set != want {
			t.Errorf("%s: ValidSet() = %v, want %v", tt.name, set.Slice(), want.Slice())
		}
	}
}

func TestDecisionJSON(t *testing.T) {
	for _, d := range AllDecisions {
		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("marshal %s: %v", d, err)
		}
		var back Decision
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != d {
			t.Errorf("round trip of %s gave %s", d, back)
		}
	}

	data, _ := json.Marshal(LookAndSwap)
	if string(data) != `"LookAndSwap"` {
		t.Errorf("marshal LookAndSwap = %s", data)
	}

	var d Decision
	if err := json.Unmarshal([]byte(`"Shred"`), &d); err == nil {
		t.Error("expected error for unknown decision")
	}
}
