package main

import "math/rand"

// sample is the wire shape of one telemetry submission.
type sample struct {
	DeviceID           string  `json:"device_id"`
	CPUUsage           float64 `json:"cpu_usage"`
	MemoryUsage        float64 `json:"memory_usage"`
	NetworkTraffic     float64 `json:"network_traffic"`
	FailedAuthAttempts int     `json:"failed_auth_attempts"`
}

// profile synthesizes metric samples shaped like one scenario.
type profile func(r *rand.Rand) sample

var profiles = map[string]profile{
	"normal":      normalProfile,
	"brute_force": bruteForceProfile,
	"ddos":        ddosProfile,
	"resource":    resourceProfile,
}

// normalProfile stays well under every detection threshold.
func normalProfile(r *rand.Rand) sample {
	return sample{
		CPUUsage:           10 + r.Float64()*50,
		MemoryUsage:        20 + r.Float64()*50,
		NetworkTraffic:     float64(r.Intn(1_000_000)),
		FailedAuthAttempts: r.Intn(3),
	}
}

// bruteForceProfile spikes failed authentication attempts.
func bruteForceProfile(r *rand.Rand) sample {
	s := normalProfile(r)
	s.FailedAuthAttempts = 6 + r.Intn(25)
	return s
}

// ddosProfile spikes inbound traffic past the stock threshold.
func ddosProfile(r *rand.Rand) sample {
	s := normalProfile(r)
	s.NetworkTraffic = 15_000_000 + float64(r.Intn(45_000_000))
	return s
}

// resourceProfile pins CPU and memory above the anomaly cutoff.
func resourceProfile(r *rand.Rand) sample {
	s := normalProfile(r)
	s.CPUUsage = 91 + r.Float64()*9
	s.MemoryUsage = 91 + r.Float64()*9
	return s
}
