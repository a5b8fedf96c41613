package port

import (
	"slices"
	"strings"
)

// Endpoint describes one attached serial device. Empty fields mean the
// platform did not report the attribute.
type Endpoint struct {
	Path         string
	VendorID     string
	ProductID    string
	Manufacturer string
}

// Policy ranks endpoints by USB product id, vendor id and manufacturer.
// Earlier entries in each list take priority. A Policy is never mutated
// after construction.
type Policy struct {
	productIDs    []string
	vendorIDs     []string
	manufacturers []string
}

var (
	defaultProductIDs    = []string{"0005"}
	defaultVendorIDs     = []string{"2E8A"}
	defaultManufacturers = []string{"MicroPython", "Microsoft"}
)

// DefaultPolicy matches a Raspberry Pi Pico running MicroPython.
func DefaultPolicy() Policy {
	return NewPolicy(defaultProductIDs, defaultVendorIDs, defaultManufacturers)
}

// NewPolicy copies the given priority lists.
func NewPolicy(productIDs, vendorIDs, manufacturers []string) Policy {
	return Policy{
		productIDs:    slices.Clone(productIDs),
		vendorIDs:     slices.Clone(vendorIDs),
		manufacturers: slices.Clone(manufacturers),
	}
}

// WithManufacturers returns a copy of p with the manufacturer list replaced.
// An empty list keeps the current one.
func (p Policy) WithManufacturers(manufacturers []string) Policy {
	if len(manufacturers) == 0 {
		return p
	}
	return NewPolicy(p.productIDs, p.vendorIDs, manufacturers)
}

func (p Policy) ProductIDs() []string    { return slices.Clone(p.productIDs) }
func (p Policy) VendorIDs() []string     { return slices.Clone(p.vendorIDs) }
func (p Policy) Manufacturers() []string { return slices.Clone(p.manufacturers) }

// indexFold returns the position of id in list, ignoring case, or -1.
// USB ids are hex and come back lowercase from sysfs but uppercase elsewhere.
func indexFold(list []string, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(list, func(s string) bool {
		return strings.EqualFold(s, id)
	})
}
