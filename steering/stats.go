package steering

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// RunStats accumulates per-frame outcomes of a run.
type RunStats struct {
	Frames int
	NoPath int
	Errors int

	latenciesMs stats.Float64Data
	commands    stats.Float64Data
	bearings    stats.Float64Data
	// steeredAt holds the frame number of each commands entry.
	steeredAt []float64
}

func (rs *RunStats) record(res Result, err error, latency time.Duration) {
	rs.Frames++
	rs.latenciesMs = append(rs.latenciesMs, float64(latency)/float64(time.Millisecond))
	switch {
	case err != nil:
		rs.Errors++
	case res.NoPath:
		rs.NoPath++
	default:
		rs.commands = append(rs.commands, res.Command)
		rs.bearings = append(rs.bearings, res.RealBearing)
		rs.steeredAt = append(rs.steeredAt, float64(rs.Frames-1))
	}
}

// Summary condenses a run.
type Summary struct {
	Frames  int
	Steered int
	NoPath  int
	Errors  int

	MeanLatencyMs float64
	P95LatencyMs  float64
	MaxLatencyMs  float64

	MeanCommand   float64
	CommandStdDev float64
	MeanBearing   float64
}

// Summary computes the run summary. Statistics over no samples are zero.
func (rs *RunStats) Summary() Summary {
	s := Summary{
		Frames:  rs.Frames,
		Steered: len(rs.commands),
		NoPath:  rs.NoPath,
		Errors:  rs.Errors,
	}
	s.MeanLatencyMs = orZero(rs.latenciesMs.Mean())
	s.P95LatencyMs = orZero(rs.latenciesMs.Percentile(95))
	s.MaxLatencyMs = orZero(rs.latenciesMs.Max())
	s.MeanCommand = orZero(rs.commands.Mean())
	s.CommandStdDev = orZero(rs.commands.StandardDeviation())
	s.MeanBearing = orZero(rs.bearings.Mean())
	return s
}

func orZero(v float64, err error) float64 {
	if err != nil {
		return 0
	}
	return v
}

func (s Summary) String() string {
	return fmt.Sprintf("%d frames (%d steered, %d no path, %d errors), latency mean %.1fms p95 %.1fms max %.1fms, command mean %.2f sd %.2f",
		s.Frames, s.Steered, s.NoPath, s.Errors, s.MeanLatencyMs, s.P95LatencyMs, s.MaxLatencyMs, s.MeanCommand, s.CommandStdDev)
}
