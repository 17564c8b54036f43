package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firestorepb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakchat/pkg/errors"
)

// storeError separates transient store failures, which callers may retry,
// from everything else.
func storeError(message string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return errors.Transient(message, err)
	}
	return errors.Internal(message, err)
}

// countDocs runs a server-side aggregation count over the query.
func countDocs(ctx context.Context, query firestore.Query) (int64, error) {
	results, err := query.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}

	value, ok := results["all"]
	if !ok {
		return 0, fmt.Errorf("aggregation result missing count")
	}

	count, ok := value.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected aggregation result type %T", value)
	}

	return count.GetIntegerValue(), nil
}
