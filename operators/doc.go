// Package operators implements read-only relational operators over storage
// tables.
//
// Operators produce tables of reference columns that point into their inputs
// instead of copying values. References are always flattened, so an output
// column addresses a base table directly even when the input was itself an
// operator result. Use Materialize to turn such a result into Value columns,
// e.g. before persisting it.
//
//	hits, err := operators.TableScan(ctx, orders, 2, operators.OpGreaterThan, model.Double(100))
//	rest, err := operators.Difference(ctx, orders, hits)
//	plain, err := operators.Materialize(ctx, rest)
package operators
