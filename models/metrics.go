package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	appKeyLabel = "app_key"
)

var (
	sceneCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scene_count",
		Help: "The number of scenes.",
	}, []string{appKeyLabel})

	sceneCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_count_total",
		Help: "The total number of scenes.",
	}, []string{appKeyLabel})
)

func instrumentIncreaseSceneGauge(appKey string) {
	sceneCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}

func instrumentDecreaseSceneGauge(appKey string) {
	sceneCount.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Dec()
}

func instrumentCountScene(appKey string) {
	sceneCountTotal.
		With(prometheus.Labels{appKeyLabel: appKey}).
		Inc()
}
