package ring

import "math"

// Stats is a point-in-time summary of topology and key balance.
type Stats struct {
	TotalNodes        int
	TotalVirtualNodes int
	TotalKeys         int
	LoadDistribution  map[string]int     // nodeID -> key count
	LoadPercentage    map[string]float64 // nodeID -> share of tracked keys
	AvgLoad           float64
	LoadStdDev        float64
}

// Stats computes the current load summary. An empty ring yields zero values
// and empty maps, never a division by zero.
func (r *Ring) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		TotalNodes:        len(r.nodes),
		TotalVirtualNodes: len(r.vnodes),
		TotalKeys:         len(r.owners),
		LoadDistribution:  make(map[string]int, len(r.nodes)),
		LoadPercentage:    make(map[string]float64, len(r.nodes)),
	}
	if s.TotalNodes == 0 {
		return s
	}

	for id, node := range r.nodes {
		s.LoadDistribution[id] = len(node.keys)
		if s.TotalKeys > 0 {
			s.LoadPercentage[id] = float64(len(node.keys)) / float64(s.TotalKeys) * 100
		} else {
			s.LoadPercentage[id] = 0
		}
	}

	s.AvgLoad = float64(s.TotalKeys) / float64(s.TotalNodes)
	var sumSq float64
	for _, count := range s.LoadDistribution {
		d := float64(count) - s.AvgLoad
		sumSq += d * d
	}
	s.LoadStdDev = math.Sqrt(sumSq / float64(s.TotalNodes))
	return s
}
