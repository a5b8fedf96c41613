package port

//go:generate go tool mockgen -source=catalog.go -destination=mock_catalog.go -package=port

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// Catalog lists the serial endpoints currently attached to the host.
type Catalog interface {
	List() ([]Endpoint, error)
}

var getDetailedPortsList = enumerator.GetDetailedPortsList

// SystemCatalog enumerates ports through the operating system. The
// enumerator does not report the USB manufacturer string, so it is filled
// in from sysfs where available.
type SystemCatalog struct{}

func (SystemCatalog) List() ([]Endpoint, error) {
	ports, err := getDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerator error: %w", err)
	}

	endpoints := make([]Endpoint, 0, len(ports))
	for _, p := range ports {
		e := Endpoint{Path: p.Name}
		if p.IsUSB {
			e.VendorID = p.VID
			e.ProductID = p.PID
			e.Manufacturer = manufacturer(p.Name)
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, nil
}
