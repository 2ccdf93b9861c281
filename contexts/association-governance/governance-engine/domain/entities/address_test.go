package entities

import (
	"errors"
	"testing"

	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
)

func TestAddressRoundTrip(t *testing.T) {
	in := Address{
		Location:   Location{Country: "PT", Region: "Lisboa", City: " Lisbon "},
		Street:     "Rua Augusta 10",
		PostalCode: "1100-053",
	}
	raw, err := EncodeAddress(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	out, err := DecodeAddress(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out != in.Normalize() {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in.Normalize())
	}
}

func TestDecodeAddressRejectsMalformedInput(t *testing.T) {
	inputs := []string{
		`Rua Augusta 10|Lisbon|PT`,
		`{"location":{"country":"PT","city":"Lisbon"},"floor":3}`,
		`{"location":{"country":"PT"}}`,
		`{"location":{"country":"PT","city":"Lisbon"}} {}`,
		`null`,
	}
	for _, input := range inputs {
		if _, err := DecodeAddress([]byte(input)); !errors.Is(err, domainerrors.ErrMalformedAddress) {
			t.Fatalf("expected malformed address for %q, got %v", input, err)
		}
	}
}

func TestAddressScanner(t *testing.T) {
	var addr Address
	if err := addr.Scan(`{"location":{"country":"PT","city":"Porto"}}`); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if addr.Location.City != "Porto" {
		t.Fatalf("expected Porto, got %q", addr.Location.City)
	}
	if err := addr.Scan(42); !errors.Is(err, domainerrors.ErrMalformedAddress) {
		t.Fatalf("expected malformed address for int column, got %v", err)
	}
	value, err := Address{}.Value()
	if err != nil || value != nil {
		t.Fatalf("expected nil value for zero address, got %v %v", value, err)
	}
}
