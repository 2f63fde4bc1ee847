package main

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// walk is a bounded random walk of temperature and humidity.
type walk struct {
	mu   sync.Mutex
	rng  *rand.Rand
	temp float64
	hum  float64
}

func newWalk(temp, hum float64) *walk {
	return &walk{
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		temp: temp,
		hum:  hum,
	}
}

// step advances the walk and returns the new values rounded to 0.01.
func (w *walk) step() (temp, hum float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.temp = math.Min(45, math.Max(10, w.temp+w.rng.Float64()-0.5))
	w.hum = math.Min(100, math.Max(15, w.hum+4*w.rng.Float64()-2))
	return math.Round(w.temp*100) / 100, math.Round(w.hum*100) / 100
}

func (w *walk) nudge(delta float64) {
	w.mu.Lock()
	w.temp += delta
	w.mu.Unlock()
}
