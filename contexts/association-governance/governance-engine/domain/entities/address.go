package entities

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
)

// Location is shared by associations and member addresses. Address holds a
// Location value instead of extending it.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city"`
}

type Address struct {
	Location   Location `json:"location"`
	Street     string   `json:"street,omitempty"`
	PostalCode string   `json:"postal_code,omitempty"`
}

func (l Location) Normalize() Location {
	return Location{
		Country: strings.TrimSpace(l.Country),
		Region:  strings.TrimSpace(l.Region),
		City:    strings.TrimSpace(l.City),
	}
}

func (l Location) Validate() error {
	if strings.TrimSpace(l.Country) == "" || strings.TrimSpace(l.City) == "" {
		return fmt.Errorf("%w: country and city are required", domainerrors.ErrMalformedAddress)
	}
	return nil
}

func (a Address) Normalize() Address {
	return Address{
		Location:   a.Location.Normalize(),
		Street:     strings.TrimSpace(a.Street),
		PostalCode: strings.TrimSpace(a.PostalCode),
	}
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// EncodeAddress produces the tagged storage form of an address.
func EncodeAddress(a Address) ([]byte, error) {
	a = a.Normalize()
	if err := a.Location.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(a)
}

// DecodeAddress is the strict inverse of EncodeAddress: unknown fields,
// trailing data and missing location parts are rejected.
func DecodeAddress(raw []byte) (Address, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	var out Address
	if err := decoder.Decode(&out); err != nil {
		return Address{}, fmt.Errorf("%w: %v", domainerrors.ErrMalformedAddress, err)
	}
	if _, err := decoder.Token(); err != io.EOF {
		return Address{}, fmt.Errorf("%w: trailing data", domainerrors.ErrMalformedAddress)
	}
	out = out.Normalize()
	if err := out.Location.Validate(); err != nil {
		return Address{}, err
	}
	return out, nil
}

func (a Address) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, nil
	}
	raw, err := EncodeAddress(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (a *Address) Scan(src any) error {
	var raw []byte
	switch value := src.(type) {
	case nil:
		*a = Address{}
		return nil
	case []byte:
		raw = value
	case string:
		raw = []byte(value)
	default:
		return fmt.Errorf("%w: unsupported column type %T", domainerrors.ErrMalformedAddress, src)
	}
	decoded, err := DecodeAddress(raw)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}
