// Package mock provides test double implementations of AI service interfaces.
//
// MockDescriber satisfies ai.Describer without a model server and records
// how often it was called.
//
//	describer := mock.NewMockDescriber().
//	    WithDescribeFunc(func(ctx context.Context, path string) (string, error) {
//	        return "a cat on a sofa", nil
//	    })
//	count := describer.CallCount()
package mock
