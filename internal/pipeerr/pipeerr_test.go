package pipeerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Newf(KindPublish, "broker rejected batch")
	wrapped := fmt.Errorf("forwarding trades: %w", base)

	if !Is(wrapped, KindPublish) {
		t.Fatalf("expected wrapped error to keep its kind, got %v", wrapped)
	}
	if Is(wrapped, KindStoreWrite) {
		t.Fatal("kind check matched the wrong kind")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("plain errors must not report a kind")
	}
}

func TestNewNilPassthrough(t *testing.T) {
	if err := New(KindParse, nil); err != nil {
		t.Fatalf("wrapping nil must stay nil, got %v", err)
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := New(KindTransientNetwork, cause)
	if !errors.Is(err, cause) {
		t.Fatal("classified error must unwrap to its cause")
	}
}

func TestKindStrings(t *testing.T) {
	cases := map[Kind]string{
		KindTransientNetwork: "transient_network",
		KindParse:            "parse",
		KindPublish:          "publish",
		KindStoreWrite:       "store_write",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
