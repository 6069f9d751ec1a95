// Copyright 2026 The fdnix-catalog Authors
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/fdnix/fdnix-catalog/internal/catalog"
)

// LicenseValue is the tagged union `meta.license` decodes into (spec.md §4.3,
// §9). It is a closed interface with three implementations rather than a
// dynamic map so downstream code pattern-matches on a type switch instead of
// probing keys.
type LicenseValue interface {
	// Licenses flattens the value into zero or more canonical License rows.
	Licenses() []catalog.License
}

// LicenseString is a bare license name, e.g. `"license": "gpl3Plus"`.
type LicenseString struct {
	Value string
}

// Licenses implements LicenseValue.
func (l LicenseString) Licenses() []catalog.License {
	if l.Value == "" {
		return nil
	}
	return []catalog.License{{ShortName: sanitize(l.Value, maxShortFieldLen)}}
}

// LicenseObject is a single structured license mapping.
type LicenseObject struct {
	ShortName        string
	FullName         string
	SPDXID           string
	URL              string
	Free             bool
	Redistributable  bool
	Deprecated       bool
}

// Licenses implements LicenseValue.
func (l LicenseObject) Licenses() []catalog.License {
	name := l.ShortName
	if name == "" {
		name = l.SPDXID
	}
	if name == "" {
		name = l.FullName
	}
	if name == "" {
		return nil
	}
	return []catalog.License{{
		ShortName:         sanitize(name, maxShortFieldLen),
		FullName:          sanitize(l.FullName, maxFieldLen),
		SPDXID:            sanitize(l.SPDXID, maxShortFieldLen),
		URL:               sanitize(l.URL, maxFieldLen),
		IsFree:            l.Free,
		IsRedistributable: l.Redistributable,
		IsDeprecated:      l.Deprecated,
	}}
}

// LicenseArray is a heterogeneous sequence of licenses; elements are
// normalized per their own type and joined in original order (spec.md §8
// boundary behavior).
type LicenseArray struct {
	Licenses_ []LicenseValue
}

// Licenses implements LicenseValue.
func (l LicenseArray) Licenses() []catalog.License {
	var out []catalog.License
	for _, v := range l.Licenses_ {
		out = append(out, v.Licenses()...)
	}
	return out
}

// rawLicenseObject is the wire shape of a single license mapping.
type rawLicenseObject struct {
	ShortName       string `json:"shortName"`
	FullName        string `json:"fullName"`
	SPDXID          string `json:"spdxId"`
	URL             string `json:"url"`
	Free            bool   `json:"free"`
	Redistributable bool   `json:"redistributable"`
	Deprecated      bool   `json:"deprecated"`
}

func (r rawLicenseObject) toValue() LicenseObject {
	return LicenseObject{
		ShortName:       r.ShortName,
		FullName:        r.FullName,
		SPDXID:          r.SPDXID,
		URL:             r.URL,
		Free:            r.Free,
		Redistributable: r.Redistributable,
		Deprecated:      r.Deprecated,
	}
}

// DecodeLicense coerces the polymorphic meta.license field into a
// LicenseValue, per the (a) scalar / (b) object / (c) array rule in
// spec.md §4.3. Absent or null input yields a nil LicenseValue ("no
// license"). Input of any other shape (a number, a boolean, or an array
// holding one) yields an error, which Record passes on, so the whole
// record is skipped.
func DecodeLicense(raw json.RawMessage) (LicenseValue, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	// (a) scalar string.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return LicenseString{Value: s}, nil
	}
	// (c) sequence: may itself mix strings and objects (boundary behavior,
	// spec.md §8).
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		vals := make([]LicenseValue, 0, len(arr))
		for _, elem := range arr {
			v, err := DecodeLicense(elem)
			if err != nil {
				return nil, err
			}
			if v != nil {
				vals = append(vals, v)
			}
		}
		return LicenseArray{Licenses_: vals}, nil
	}
	// (b) single mapping.
	var obj rawLicenseObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Wrap(err, "decoding license")
	}
	return obj.toValue(), nil
}
