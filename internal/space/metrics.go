package space

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSpacesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spacehost_spaces_started_total",
		Help: "Spaces opened by this agent",
	})

	metricSpacesStopped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spacehost_spaces_stopped_total",
		Help: "Spaces closed by this agent",
	}, []string{"reason"})

	metricLaunchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spacehost_space_launch_failures_total",
		Help: "Failed attempts to open a space",
	})

	metricSpeakersAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spacehost_speakers_admitted_total",
		Help: "Speaker requests approved",
	})

	metricSpeakersQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spacehost_speakers_queued_total",
		Help: "Speaker requests placed in the pending queue",
	})

	metricSpeakersRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spacehost_speakers_removed_total",
		Help: "Speakers removed from a space",
	}, []string{"reason"})

	metricActiveSpeakers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spacehost_active_speakers",
		Help: "Speakers currently holding a slot",
	})

	metricQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spacehost_speaker_queue_length",
		Help: "Pending speaker requests",
	})

	metricApprovalWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spacehost_speaker_approval_wait_seconds",
		Help:    "Time spent waiting for a speaker request to be accepted",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"outcome"})
)
