package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/home", "200"))
	RecordHTTPRequest("GET", "/home", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/home", "200"))
	if after != before+1 {
		t.Fatalf("expected counter to grow by 1, got %v -> %v", before, after)
	}
}

func TestRecordRelease(t *testing.T) {
	releases := testutil.ToFloat64(Releases)
	revenue := testutil.ToFloat64(Revenue)

	RecordRelease(22.5)
	RecordRelease(0)

	if got := testutil.ToFloat64(Releases); got != releases+2 {
		t.Errorf("releases = %v, want %v", got, releases+2)
	}
	if got := testutil.ToFloat64(Revenue); got != revenue+22.5 {
		t.Errorf("revenue = %v, want %v", got, revenue+22.5)
	}
}

func TestRecordPublishAndOccupancy(t *testing.T) {
	ok := testutil.ToFloat64(EventsPublished.WithLabelValues("booked", "ok"))
	failed := testutil.ToFloat64(EventsPublished.WithLabelValues("booked", "error"))

	RecordPublish("booked", nil)
	RecordPublish("booked", errors.New("broker down"))

	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("booked", "ok")); got != ok+1 {
		t.Errorf("ok = %v", got)
	}
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("booked", "error")); got != failed+1 {
		t.Errorf("error = %v", got)
	}

	RecordOccupancy(80, 3)
	if testutil.ToFloat64(TotalSpots) != 80 || testutil.ToFloat64(OccupiedSpots) != 3 {
		t.Errorf("gauges not set")
	}
}
