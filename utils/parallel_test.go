package utils

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"
	gutils "go.viam.com/utils"
)

func TestGroupWorkParallel(t *testing.T) {
	for _, size := range []int{0, 1, 3, 17, 1000} {
		var mu sync.Mutex
		seen := make([]int, size)
		groups := -1
		err := GroupWorkParallel(context.Background(), size,
			func(numGroups int) { groups = numGroups },
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				test.That(t, to-from, test.ShouldEqual, groupSize)
				return func(memberNum, workNum int) {
					test.That(t, memberNum, test.ShouldEqual, workNum-from)
					mu.Lock()
					seen[workNum]++
					mu.Unlock()
				}, nil
			})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, groups, test.ShouldBeLessThanOrEqualTo, ParallelFactor)
		test.That(t, groups, test.ShouldBeLessThanOrEqualTo, size)
		for _, count := range seen {
			test.That(t, count, test.ShouldEqual, 1)
		}
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ran := false
		err := GroupWorkParallel(ctx, 10, func(int) {},
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				return func(int, int) { ran = true }, nil
			})
		test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
		test.That(t, ran, test.ShouldBeFalse)
	})
}

func TestRunInParallel(t *testing.T) {
	wait100ms := func(ctx context.Context) error {
		gutils.SelectContextOrWait(ctx, 100*time.Millisecond)
		return ctx.Err()
	}

	elapsed, err := RunInParallel(context.Background(), []SimpleFunc{wait100ms, wait100ms})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, elapsed, test.ShouldBeLessThan, 190*time.Millisecond)

	errFunc := func(ctx context.Context) error {
		return errors.New("bad")
	}
	elapsed, err = RunInParallel(context.Background(), []SimpleFunc{wait100ms, wait100ms, errFunc})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldEqual, "bad")
	test.That(t, elapsed, test.ShouldBeLessThan, 90*time.Millisecond)

	panicFunc := func(ctx context.Context) error {
		panic(1)
	}
	_, err = RunInParallel(context.Background(), []SimpleFunc{panicFunc})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "got panic")
}
