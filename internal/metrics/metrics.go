package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckIns counts check-in submissions by outcome (admitted, out_of_range, ...).
	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_checkins_total",
		Help: "Check-in submissions by admission outcome.",
	}, []string{"outcome"})

	// CheckInDistance observes the geofence distance of submissions that reached the geofence check.
	CheckInDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attendance_checkin_distance_meters",
		Help:    "Distance between submitted location and session center.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 50000},
	})

	// Notifications counts push deliveries by result (sent, failed, unregistered, skipped).
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_notifications_total",
		Help: "Push notification delivery attempts by result.",
	}, []string{"result"})
)
