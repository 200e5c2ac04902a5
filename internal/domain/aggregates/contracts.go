package aggregates

import (
	"fmt"
	"strings"
)

// WriteTxOwnership says who opens the transaction around a write.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: write methods open and commit their own
	// transaction. Callers never pass one in.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy limits which reads an aggregate performs.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: only the rows a write needs to check its
	// invariants (locked enrollment, current payment status, ...).
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries: listing and catalog reads stay on repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

// Contract describes an aggregate: its name (the prefix of its operation
// names), transaction ownership and read policy.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Validate rejects contracts the write path cannot honour. Every aggregate
// in this module commits its own cascades, so anything but aggregate-owned
// transactions is a wiring mistake.
func (c Contract) Validate() error {
	const op = "Aggregates.Contract.Validate"
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Configuration(op, "aggregate contract has no name")
	}
	if !c.RequiresAggregateOwnedTx() {
		return Configuration(op, fmt.Sprintf("%s: write transactions must be aggregate owned, got %q", name, c.WriteTxOwnership))
	}
	switch c.ReadPolicy {
	case ReadPolicyInvariantScoped, ReadPolicyTableRepoQueries:
	default:
		return Configuration(op, fmt.Sprintf("%s: unknown read policy %q", name, c.ReadPolicy))
	}
	return nil
}

// ValidateContracts checks every aggregate and that no two share a name.
func ValidateContracts(aggs ...Aggregate) error {
	const op = "Aggregates.Contract.Validate"
	seen := make(map[string]struct{}, len(aggs))
	for _, a := range aggs {
		if a == nil {
			return Configuration(op, "aggregate is not wired")
		}
		c := a.Contract()
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return Configuration(op, "duplicate aggregate contract: "+c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
