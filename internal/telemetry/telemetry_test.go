package telemetry_test

import (
	"context"
	"testing"

	"github.com/okian/palmares/internal/telemetry"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSetup(t *testing.T) {
	Convey("Given no endpoint", t, func() {
		shutdown, err := telemetry.Setup(context.Background(), "palmares-test", "")

		Convey("Then setup is a no-op", func() {
			So(err, ShouldBeNil)
			So(shutdown(context.Background()), ShouldBeNil)
		})
	})

	Convey("Given an unreachable endpoint", t, func() {
		shutdown, err := telemetry.Setup(context.Background(), "palmares-test", "http://192.0.2.1:4318")

		Convey("Then the provider is created and shuts down cleanly", func() {
			So(err, ShouldBeNil)
			So(shutdown(context.Background()), ShouldBeNil)
		})
	})
}
