package internaldefs

import (
	"strings"
	"testing"

	"github.com/MrEthical07/authflow"
)

func TestEveryCounterExported(t *testing.T) {
	seen := make(map[authflow.MetricID]bool)
	names := make(map[string]bool)
	for _, def := range CounterDefs {
		if seen[def.ID] {
			t.Fatalf("metric %d exported twice", def.ID)
		}
		if names[def.Name] {
			t.Fatalf("name %s used twice", def.Name)
		}
		if !strings.HasPrefix(def.Name, "authflow_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("unexpected counter name %s", def.Name)
		}
		seen[def.ID] = true
		names[def.Name] = true
	}
	for _, def := range HistogramDefs {
		seen[def.ID] = true
	}
	for id := authflow.MetricID(0); id < authflow.MetricIDCount; id++ {
		if !seen[id] {
			t.Fatalf("metric %d has no export definition", id)
		}
	}
}

func TestBucketTablesAgree(t *testing.T) {
	if len(HistogramBounds) != 8 || len(HistogramBoundSuffix) != 8 || len(HistogramUpperBounds) != 7 {
		t.Fatal("bucket tables out of sync")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}
