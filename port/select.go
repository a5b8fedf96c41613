package port

import (
	"errors"
	"fmt"
)

// ErrNoEndpoint is returned when no attached endpoint matches the policy.
var ErrNoEndpoint = errors.New("no matching serial endpoint")

// Select picks the endpoint most likely to be the target board.
//
// Endpoints matching a product id are preferred, then those matching a
// vendor id. Several candidates in the same tier are ranked by how early
// their other attributes appear in the policy lists. When neither id
// matches, the first endpoint whose manufacturer equals a policy entry wins,
// entries tried in order. Ties go to the endpoint enumerated first.
func Select(endpoints []Endpoint, policy Policy) (string, bool) {
	byProduct := filter(endpoints, func(e Endpoint) bool {
		return indexFold(policy.productIDs, e.ProductID) >= 0
	})
	if len(byProduct) > 0 {
		return best(byProduct, func(e Endpoint) int {
			return rank(policy.vendorIDs, indexFold(policy.vendorIDs, e.VendorID)) +
				rank(policy.manufacturers, indexFold(policy.manufacturers, e.Manufacturer))
		}), true
	}

	byVendor := filter(endpoints, func(e Endpoint) bool {
		return indexFold(policy.vendorIDs, e.VendorID) >= 0
	})
	if len(byVendor) > 0 {
		return best(byVendor, func(e Endpoint) int {
			return rank(policy.productIDs, indexFold(policy.productIDs, e.ProductID)) +
				rank(policy.manufacturers, indexFold(policy.manufacturers, e.Manufacturer))
		}), true
	}

	for _, m := range policy.manufacturers {
		for _, e := range endpoints {
			if e.Manufacturer != "" && e.Manufacturer == m {
				return e.Path, true
			}
		}
	}

	return "", false
}

// rank scores a list position: the first entry scores len(list), a missing
// entry scores 0.
func rank(list []string, index int) int {
	if index < 0 {
		return 0
	}
	return len(list) - index
}

func filter(endpoints []Endpoint, keep func(Endpoint) bool) []Endpoint {
	var out []Endpoint
	for _, e := range endpoints {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// best returns the path of the highest scoring endpoint. candidates must not
// be empty.
func best(candidates []Endpoint, score func(Endpoint) int) string {
	if len(candidates) == 1 {
		return candidates[0].Path
	}
	winner, top := 0, score(candidates[0])
	for i := 1; i < len(candidates); i++ {
		if s := score(candidates[i]); s > top {
			winner, top = i, s
		}
	}
	return candidates[winner].Path
}

// Selector resolves the target port from a live catalog.
type Selector struct {
	Catalog Catalog
	Policy  Policy
}

// Resolve lists the catalog and selects an endpoint from it.
func (s Selector) Resolve() (string, error) {
	endpoints, err := s.Catalog.List()
	if err != nil {
		return "", fmt.Errorf("listing serial ports: %w", err)
	}
	path, ok := Select(endpoints, s.Policy)
	if !ok {
		return "", ErrNoEndpoint
	}
	return path, nil
}
