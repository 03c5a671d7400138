package aggregates

import (
	"fmt"
	"strings"
)

// WriteTxOwnership says who opens the transaction around a write.
type WriteTxOwnership string

const (
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy limits which reads an aggregate performs on its own.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped allows only the reads a write needs to check invariants.
	// List and detail views stay on the repos.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
)

// Contract is the policy an aggregate advertises about itself.
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

// Validate checks the name is "<Context>.<Aggregate>" and both policies are known.
func (c Contract) Validate() error {
	parts := strings.Split(c.Name, ".")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || !strings.HasSuffix(parts[1], "Aggregate") {
		return fmt.Errorf("contract name %q: want <Context>.<Name>Aggregate", c.Name)
	}
	if c.WriteTxOwnership != WriteTxOwnedByAggregate {
		return fmt.Errorf("contract %s: unknown tx ownership %q", c.Name, c.WriteTxOwnership)
	}
	if c.ReadPolicy != ReadPolicyInvariantScoped {
		return fmt.Errorf("contract %s: unknown read policy %q", c.Name, c.ReadPolicy)
	}
	return nil
}

// Contracts lists every aggregate contract in the service.
func Contracts() []Contract {
	return []Contract{BakeAggregateContract, RecipeAggregateContract}
}
