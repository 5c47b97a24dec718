// Package poolerrors provides examples of structured error handling.
package poolerrors_test

import (
	"errors"
	"fmt"
	"io"

	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := poolerrors.New(poolerrors.ErrorTypeInvalidArgument, "minimum capacity must be positive").
		WithDetail("capacity", 0)

	fmt.Println(err.Error())

	// Output:
	// invalid_argument: minimum capacity must be positive
}

// ExampleWrap shows how a policy failure is wrapped as a create error.
func ExampleWrap() {
	err := poolerrors.Wrap(io.ErrShortBuffer, poolerrors.ErrorTypeCreate, "policy failed to create item")

	if poolerrors.IsType(err, poolerrors.ErrorTypeCreate) {
		fmt.Println("create error")
	}
	if errors.Is(err, io.ErrShortBuffer) {
		fmt.Println("cause preserved")
	}

	// Output:
	// create error
	// cause preserved
}

// Example_sentinels shows matching structured errors against sentinels.
func Example_sentinels() {
	err := fmt.Errorf("release: %w",
		poolerrors.New(poolerrors.ErrorTypeMisuse, "lease already released"))

	fmt.Println(errors.Is(err, poolerrors.ErrMisuse))
	fmt.Println(errors.Is(err, poolerrors.ErrInvalidArgument))

	// Output:
	// true
	// false
}
