package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/lapicque/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDeduper_SeenAndRecord(t *testing.T) {
	Convey("Given a bounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))

		Convey("When an id is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "s1")
			second := d.SeenAndRecord(ctx, "s1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, int64(1))
			})
		})

		Convey("When more ids arrive than the bound", func() {
			d.SeenAndRecord(ctx, "a")
			d.SeenAndRecord(ctx, "b")
			d.SeenAndRecord(ctx, "c")

			Convey("Then the oldest id is forgotten first", func() {
				So(d.Size(), ShouldEqual, int64(2))
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})

		Convey("When an id is unrecorded", func() {
			d.SeenAndRecord(ctx, "a")
			d.Unrecord(ctx, "a")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, int64(0))
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})
		})

		Convey("When an unrecorded id is recorded again and its old slot is evicted", func() {
			d.SeenAndRecord(ctx, "a")
			d.SeenAndRecord(ctx, "b")
			d.Unrecord(ctx, "a")
			d.SeenAndRecord(ctx, "a")

			Convey("Then the fresh record survives the eviction of the stale slot", func() {
				So(d.SeenAndRecord(ctx, "a"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, int64(2))
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("Then nothing is evicted", func() {
			for i := 0; i < 100; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i)), ShouldBeFalse)
			}
			So(d.Size(), ShouldEqual, int64(100))
			So(d.SeenAndRecord(ctx, "id-0"), ShouldBeTrue)
		})
	})
}

func TestDeduper_Concurrent(t *testing.T) {
	Convey("Given many goroutines racing on the same ids", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0

		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is reported fresh exactly once", func() {
			So(fresh, ShouldEqual, 50)
			So(d.Size(), ShouldEqual, int64(50))
		})
	})
}
