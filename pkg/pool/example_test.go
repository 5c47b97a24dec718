package pool_test

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/leasepool/pkg/pool"
	"github.com/ajitpratap0/leasepool/pkg/poolerrors"
	"github.com/ajitpratap0/leasepool/pkg/set"
	"github.com/ajitpratap0/leasepool/pkg/textbuf"
)

func ExampleFactory_RentCapacity() {
	texts, err := pool.NewTieredFactory[textbuf.Buffer](pool.TextBufferPolicy{},
		[]int{256, 1024, 4096, 16384},
		pool.WithName("example-text"),
		pool.WithLogger(zap.NewNop()),
	)
	if err != nil {
		panic(err)
	}

	lease, err := texts.RentCapacity(5000)
	if err != nil {
		panic(err)
	}
	buf := lease.MustItem()
	buf.WriteString("hello, ")
	buf.WriteString("world")
	fmt.Println(buf.String(), lease.Tier())

	if err := lease.Release(); err != nil {
		panic(err)
	}
	err = lease.Release()
	fmt.Println(errors.Is(err, poolerrors.ErrMisuse))

	// Output:
	// hello, world 16384
	// true
}

func ExampleWith() {
	sets, err := pool.NewTieredFactory[set.Set[string]](pool.SetPolicy[string]{},
		[]int{16, 256},
		pool.WithName("example-sets"),
		pool.WithLogger(zap.NewNop()),
	)
	if err != nil {
		panic(err)
	}

	err = pool.With(sets, 100, func(s *set.Set[string]) error {
		s.AddAll("a", "b", "a")
		fmt.Println(s.Len(), s.Cap() >= 100)
		return nil
	})
	fmt.Println(err)

	// Output:
	// 2 true
	// <nil>
}

func ExampleSelectTier() {
	tiers := []int{256, 1024, 4096, 16384}
	for _, c := range []int{10, 256, 5000, 100000} {
		fmt.Println(c, tiers[pool.SelectTier(tiers, c)])
	}

	// Output:
	// 10 256
	// 256 256
	// 5000 16384
	// 100000 16384
}
