package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/palmares/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a capture id is new", func() {
			seen := d.SeenAndRecord(ctx, "capture-1")

			Convey("Then it should return false and record it", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a capture id is replayed", func() {
			d.SeenAndRecord(ctx, "capture-1")
			seen := d.SeenAndRecord(ctx, "capture-1")

			Convey("Then it should return true", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded after backpressure", func() {
			d.SeenAndRecord(ctx, "capture-1")
			d.Unrecord(ctx, "capture-1")
			d.Unrecord(ctx, "never-seen")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "capture-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"a", "b", "c"} {
			d.SeenAndRecord(ctx, id)
		}

		Convey("When a fourth id arrives", func() {
			d.SeenAndRecord(ctx, "d")

			Convey("Then the oldest id is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})

		Convey("When the oldest id was unrecorded first", func() {
			d.Unrecord(ctx, "a")
			d.SeenAndRecord(ctx, "d")
			d.SeenAndRecord(ctx, "e")

			Convey("Then eviction continues from the next oldest", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "e"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(-1))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("capture-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 1000)
			So(d.SeenAndRecord(ctx, "capture-0"), ShouldBeTrue)
		})
	})

	Convey("Given concurrent producers", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("capture-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is new exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
