package dynaread

import "github.com/aws/aws-sdk-go-v2/aws"

// ReconcileConsistency resolves two 'ConsistentRead' settings addressed to the
// same table. A nil setting is unset and defers to the other:
//
//	(nil, nil) -> nil
//	(nil, x)   -> x
//	(x, nil)   -> x
//	(x, x)     -> x
//	(x, y)     -> conflict
//
// The second result is false on conflict. The returned pointer never aliases
// either argument.
func ReconcileConsistency(a, b *bool) (*bool, bool) {
	switch {
	case a == nil && b == nil:
		return nil, true
	case a == nil:
		return aws.Bool(*b), true
	case b == nil:
		return aws.Bool(*a), true
	case *a == *b:
		return aws.Bool(*a), true
	default:
		return nil, false
	}
}

// reconcile is ReconcileConsistency reporting a conflict for tableName.
func reconcile(tableName string, existing, incoming *bool) (*bool, error) {
	resolved, ok := ReconcileConsistency(existing, incoming)
	if !ok {
		return nil, &ConsistencyConflictError{
			TableName: tableName,
			Existing:  *existing,
			Incoming:  *incoming,
		}
	}
	return resolved, nil
}
