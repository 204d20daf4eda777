package feed

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Roster is the ordered operator list of a feed with a reverse slot index.
// Slots are 1-based; 0 means absent.
type Roster struct {
	operators []common.Address
	index     map[common.Address]int
}

// NewRoster builds a roster from operators, rejecting duplicates and zero addresses.
func NewRoster(operators []common.Address) (*Roster, error) {
	r := &Roster{
		operators: make([]common.Address, 0, len(operators)),
		index:     make(map[common.Address]int, len(operators)),
	}
	for _, op := range operators {
		if err := r.Add(op); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Len returns the number of operators.
func (r *Roster) Len() int { return len(r.operators) }

// Slot returns the 1-based slot of op, or 0 if op is not an operator.
func (r *Roster) Slot(op common.Address) int { return r.index[op] }

// Contains reports whether op is on the roster.
func (r *Roster) Contains(op common.Address) bool { return r.index[op] != 0 }

// Operators returns a copy of the roster in slot order.
func (r *Roster) Operators() []common.Address {
	out := make([]common.Address, len(r.operators))
	copy(out, r.operators)
	return out
}

// Add appends op to the roster.
func (r *Roster) Add(op common.Address) error {
	if op == (common.Address{}) {
		return ErrInvalidOperator
	}
	if r.Contains(op) {
		return fmt.Errorf("%w: %s", ErrOperatorExists, op.Hex())
	}
	if len(r.operators) >= MaxOperators {
		return fmt.Errorf("%w: limit %d", ErrRosterFull, MaxOperators)
	}
	r.operators = append(r.operators, op)
	r.index[op] = len(r.operators)
	return nil
}

// Remove deletes op by moving the last operator into its slot.
func (r *Roster) Remove(op common.Address) error {
	slot := r.index[op]
	if slot == 0 {
		return fmt.Errorf("%w: %s", ErrOperatorNotFound, op.Hex())
	}

	last := len(r.operators) - 1
	moved := r.operators[last]
	r.operators[slot-1] = moved
	r.index[moved] = slot
	r.operators = r.operators[:last]
	delete(r.index, op)
	return nil
}

// Clone returns an independent copy.
func (r *Roster) Clone() *Roster {
	out := &Roster{
		operators: r.Operators(),
		index:     make(map[common.Address]int, len(r.index)),
	}
	for k, v := range r.index {
		out.index[k] = v
	}
	return out
}
