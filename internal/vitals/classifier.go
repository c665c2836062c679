package vitals

import "github.com/vitalwatch/vitalwatch/internal/domain"

// HealthStatus is the discrete status derived from the latest heart rate
type HealthStatus string

const (
	StatusNormal   HealthStatus = "Normal"
	StatusLow      HealthStatus = "Low"
	StatusHigh     HealthStatus = "High"
	StatusCritical HealthStatus = "Critical"
)

// Condition is one triggered condition tag. A single reading can raise
// several at once.
type Condition string

const (
	ConditionHeartRateCritical Condition = "HeartRate:Critical"
	ConditionHeartRateHigh     Condition = "HeartRate:High"
	ConditionHeartRateLow      Condition = "HeartRate:Low"
	ConditionLowOxygen         Condition = "LowOxygen"
	ConditionFever             Condition = "Fever"
	ConditionSensorFault       Condition = "SensorFault"
	ConditionIrregularRhythm   Condition = "IrregularRhythm"
)

// Clinical thresholds. Boundaries are inclusive on the normal side: exactly
// 120 is High, exactly 100 and 60 are Normal, exactly 40 is Low.
const (
	bpmCriticalHigh = 120.0
	bpmCriticalLow  = 40.0
	bpmHigh         = 100.0
	bpmLow          = 60.0

	spo2Critical = 90.0
	feverTemp    = 38.0

	irregularRhythmThreshold = 20.0
)

// Status maps a heart rate to a discrete health status
func Status(bpm float64) HealthStatus {
	switch {
	case bpm > bpmCriticalHigh || bpm < bpmCriticalLow:
		return StatusCritical
	case bpm > bpmHigh:
		return StatusHigh
	case bpm < bpmLow:
		return StatusLow
	default:
		return StatusNormal
	}
}

// Classify evaluates the latest reading against the rolling statistics and
// returns every triggered condition. It is deterministic and stateless:
// missing optional fields simply raise nothing, and a sensor-fault flag
// always raises SensorFault regardless of the vital values.
func Classify(reading domain.Reading, stats Stats) []Condition {
	var conditions []Condition

	if reading.BPM != nil {
		switch Status(*reading.BPM) {
		case StatusCritical:
			conditions = append(conditions, ConditionHeartRateCritical)
		case StatusHigh:
			conditions = append(conditions, ConditionHeartRateHigh)
		case StatusLow:
			conditions = append(conditions, ConditionHeartRateLow)
		}
	}

	if reading.SpO2 != nil && *reading.SpO2 < spo2Critical {
		conditions = append(conditions, ConditionLowOxygen)
	}
	if reading.Temperature != nil && *reading.Temperature > feverTemp {
		conditions = append(conditions, ConditionFever)
	}
	if stats.Variability > irregularRhythmThreshold {
		conditions = append(conditions, ConditionIrregularRhythm)
	}
	if reading.SensorFault {
		conditions = append(conditions, ConditionSensorFault)
	}

	return conditions
}
