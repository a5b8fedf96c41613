package port_test

import (
	"errors"
	"testing"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/picorepl/port"
)

func TestSelect(t *testing.T) {
	policy := port.DefaultPolicy()

	tests := []struct {
		name      string
		endpoints []port.Endpoint
		expected  string
		found     bool
	}{
		{
			name:      "No endpoints",
			endpoints: nil,
			found:     false,
		},
		{
			name: "Nothing matches",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyS0"},
				{Path: "/dev/ttyUSB0", VendorID: "0403", ProductID: "6001", Manufacturer: "FTDI"},
			},
			found: false,
		},
		{
			name: "Single product id match ignores other fields",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyUSB0", VendorID: "2E8A", ProductID: "000A", Manufacturer: "MicroPython"},
				{Path: "/dev/ttyACM0", VendorID: "1234", ProductID: "0005", Manufacturer: "Nobody"},
			},
			expected: "/dev/ttyACM0",
			found:    true,
		},
		{
			name: "Product id compares case insensitively",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyACM3", VendorID: "2e8a", ProductID: "0005"},
			},
			expected: "/dev/ttyACM3",
			found:    true,
		},
		{
			name: "Several product id matches pick highest score",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyACM0", VendorID: "1234", ProductID: "0005", Manufacturer: "Microsoft"},
				{Path: "/dev/ttyACM1", VendorID: "2E8A", ProductID: "0005", Manufacturer: "Microsoft"},
				{Path: "/dev/ttyACM2", VendorID: "2E8A", ProductID: "0005", Manufacturer: "MicroPython"},
			},
			expected: "/dev/ttyACM2",
			found:    true,
		},
		{
			name: "Highest score wins regardless of position",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyACM0", VendorID: "2E8A", ProductID: "0005", Manufacturer: "MicroPython"},
				{Path: "/dev/ttyACM1", VendorID: "1234", ProductID: "0005"},
			},
			expected: "/dev/ttyACM0",
			found:    true,
		},
		{
			name: "Tied product id matches pick first seen",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyACM0", VendorID: "2E8A", ProductID: "0005", Manufacturer: "MicroPython"},
				{Path: "/dev/ttyACM1", VendorID: "2E8A", ProductID: "0005", Manufacturer: "MicroPython"},
			},
			expected: "/dev/ttyACM0",
			found:    true,
		},
		{
			name: "Tied zero scores pick first seen",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyACM5", ProductID: "0005"},
				{Path: "/dev/ttyACM4", ProductID: "0005"},
			},
			expected: "/dev/ttyACM5",
			found:    true,
		},
		{
			name: "Single vendor id match",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyUSB0", VendorID: "0403", ProductID: "6001"},
				{Path: "/dev/ttyACM0", VendorID: "2E8A", ProductID: "000A"},
			},
			expected: "/dev/ttyACM0",
			found:    true,
		},
		{
			name: "Several vendor id matches ranked by manufacturer",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyACM0", VendorID: "2E8A", ProductID: "000A", Manufacturer: "Microsoft"},
				{Path: "/dev/ttyACM1", VendorID: "2E8A", ProductID: "000A", Manufacturer: "MicroPython"},
			},
			expected: "/dev/ttyACM1",
			found:    true,
		},
		{
			name: "Manufacturer priority beats discovery order",
			endpoints: []port.Endpoint{
				{Path: "/dev/ttyUSB0", Manufacturer: "Microsoft"},
				{Path: "/dev/ttyUSB1", Manufacturer: "MicroPython"},
			},
			expected: "/dev/ttyUSB1",
			found:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := port.Select(tt.endpoints, policy)
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v (path %q)", tt.found, ok, path)
			}
			if path != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, path)
			}
		})
	}
}

func TestSelectManufacturerOverride(t *testing.T) {
	policy := port.DefaultPolicy().WithManufacturers([]string{"A", "B"})

	endpoints := []port.Endpoint{
		{Path: "/dev/ttyUSB0", Manufacturer: "B"},
		{Path: "/dev/ttyUSB1", Manufacturer: "A"},
	}

	path, ok := port.Select(endpoints, policy)
	if !ok {
		t.Fatal("expected a match")
	}
	if path != "/dev/ttyUSB1" {
		t.Errorf("expected /dev/ttyUSB1, got %q", path)
	}
}

func TestPolicy(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		p := port.DefaultPolicy()
		if got := p.ProductIDs(); len(got) != 1 || got[0] != "0005" {
			t.Errorf("unexpected product ids %v", got)
		}
		if got := p.VendorIDs(); len(got) != 1 || got[0] != "2E8A" {
			t.Errorf("unexpected vendor ids %v", got)
		}
		if got := p.Manufacturers(); len(got) != 2 || got[0] != "MicroPython" || got[1] != "Microsoft" {
			t.Errorf("unexpected manufacturers %v", got)
		}
	})

	t.Run("Empty override keeps defaults", func(t *testing.T) {
		p := port.DefaultPolicy().WithManufacturers(nil)
		if got := p.Manufacturers(); len(got) != 2 {
			t.Errorf("expected defaults, got %v", got)
		}
	})

	t.Run("Lists are copied", func(t *testing.T) {
		list := []string{"A"}
		p := port.DefaultPolicy().WithManufacturers(list)
		list[0] = "Z"

		if got := p.Manufacturers(); got[0] != "A" {
			t.Errorf("policy was mutated through caller slice: %v", got)
		}
		p.Manufacturers()[0] = "Y"
		if got := p.Manufacturers(); got[0] != "A" {
			t.Errorf("policy was mutated through accessor: %v", got)
		}
	})
}

func TestSelectorResolve(t *testing.T) {
	t.Run("Resolves from catalog", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		catalog := port.NewMockCatalog(ctrl)
		catalog.EXPECT().List().Return([]port.Endpoint{
			{Path: "/dev/ttyS0"},
			{Path: "/dev/ttyACM0", VendorID: "2e8a", ProductID: "0005"},
		}, nil)

		path, err := port.Selector{Catalog: catalog, Policy: port.DefaultPolicy()}.Resolve()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "/dev/ttyACM0" {
			t.Errorf("expected /dev/ttyACM0, got %q", path)
		}
	})

	t.Run("ErrNoEndpoint when nothing matches", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		catalog := port.NewMockCatalog(ctrl)
		catalog.EXPECT().List().Return([]port.Endpoint{{Path: "/dev/ttyS0"}}, nil)

		_, err := port.Selector{Catalog: catalog, Policy: port.DefaultPolicy()}.Resolve()
		if !errors.Is(err, port.ErrNoEndpoint) {
			t.Errorf("expected ErrNoEndpoint, got: %v", err)
		}
	})

	t.Run("Catalog error is wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		catalog := port.NewMockCatalog(ctrl)
		listErr := errors.New("permission denied")
		catalog.EXPECT().List().Return(nil, listErr)

		_, err := port.Selector{Catalog: catalog, Policy: port.DefaultPolicy()}.Resolve()
		if !errors.Is(err, listErr) {
			t.Errorf("expected wrapped catalog error, got: %v", err)
		}
	})
}
