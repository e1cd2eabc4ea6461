package event

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/custody/id"
)

func TestNew(t *testing.T) {
	e := New(NativeDeposited)
	if e.ID.IsNil() {
		t.Fatal("expected an id")
	}
	if !strings.HasPrefix(e.ID.String(), "evt_") {
		t.Errorf("unexpected id prefix: %s", e.ID)
	}
	if e.OccurredAt.IsZero() {
		t.Error("expected OccurredAt to be set")
	}
}

func TestIsValueMovement(t *testing.T) {
	tests := []struct {
		name Name
		want bool
	}{
		{NativeDeposited, true},
		{TokenDeposited, true},
		{NativeWithdrawn, true},
		{TokenWithdrawn, true},
		{InternalTransfer, true},
		{WalletPaused, false},
		{WalletUnpaused, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			if got := New(tt.name).IsValueMovement(); got != tt.want {
				t.Errorf("IsValueMovement: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKey(t *testing.T) {
	e := New(TokenDeposited)
	e.User = "alice"
	if e.Key() != "alice" {
		t.Errorf("Key: got %q", e.Key())
	}
	if k := New(WalletPaused).Key(); k != string(WalletPaused) {
		t.Errorf("Key without user: got %q", k)
	}
}

func TestJSONShape(t *testing.T) {
	e := New(InternalTransfer)
	e.User = "alice"
	e.Recipient = "bob"
	e.Asset = "token-a"
	e.Amount = 300

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["event"] != "internal-transfer" {
		t.Errorf("event field: got %v", m["event"])
	}
	if m["token"] != "token-a" {
		t.Errorf("token field: got %v", m["token"])
	}
	if _, ok := m["fee"]; ok {
		t.Error("zero fee should be omitted")
	}
	if _, ok := m["ref"]; ok {
		t.Error("nil ref should be omitted")
	}

	e.Ref = id.NewTransferID()
	data, err = json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	m = nil
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["ref"] != e.Ref.String() {
		t.Errorf("ref field: got %v", m["ref"])
	}
}
