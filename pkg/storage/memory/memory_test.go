package memory

import (
	"testing"

	"github.com/fanout-labs/gqlgate/pkg/storage/test"
)

func TestMemdbStorage(t *testing.T) {
	ds := New()
	test.RunAllTests(t, ds)
}
