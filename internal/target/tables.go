// Package target implements the Adaptive Target Generator: the mapping
// from a Fingerprint plus a preset bias to a concrete Target Profile, via
// the compiled-in reference profile table and the region-gain tables
// (spec.md §4.2).
package target

import "github.com/farcloser/auralis/internal/types"

// referenceRow is one row of the reference profile table: the baseline
// numeric targets the generator mixes with the fingerprint's measured
// values for a given content class.
type referenceRow struct {
	baselineLUFS        float64
	baselineCrestFactor  float64
	baselineDR           float64
	baselineRatio        float64
	regionTargetPct      map[string]float64
}

// referenceTable is the compiled-in set of rows, one per content class.
// Region target percentages within a row sum to 1.0.
var referenceTable = map[types.ContentClass]referenceRow{
	types.ClassStudio: {
		baselineLUFS: -12, baselineCrestFactor: 11, baselineDR: 9, baselineRatio: 2.5,
		regionTargetPct: map[string]float64{
			"sub_bass": 0.08, "bass": 0.16, "low_mid": 0.16, "mid": 0.22,
			"upper_mid": 0.16, "presence": 0.14, "air": 0.08,
		},
	},
	types.ClassLive: {
		baselineLUFS: -14, baselineCrestFactor: 14, baselineDR: 12, baselineRatio: 1.8,
		regionTargetPct: map[string]float64{
			"sub_bass": 0.07, "bass": 0.15, "low_mid": 0.17, "mid": 0.24,
			"upper_mid": 0.17, "presence": 0.13, "air": 0.07,
		},
	},
	types.ClassAcoustic: {
		baselineLUFS: -16, baselineCrestFactor: 16, baselineDR: 14, baselineRatio: 1.5,
		regionTargetPct: map[string]float64{
			"sub_bass": 0.05, "bass": 0.13, "low_mid": 0.18, "mid": 0.26,
			"upper_mid": 0.18, "presence": 0.13, "air": 0.07,
		},
	},
	types.ClassElectronic: {
		baselineLUFS: -10, baselineCrestFactor: 9, baselineDR: 7, baselineRatio: 3.2,
		regionTargetPct: map[string]float64{
			"sub_bass": 0.14, "bass": 0.18, "low_mid": 0.14, "mid": 0.18,
			"upper_mid": 0.16, "presence": 0.12, "air": 0.08,
		},
	},
	types.ClassCompressedLoud: {
		baselineLUFS: -8, baselineCrestFactor: 7, baselineDR: 5, baselineRatio: 4.0,
		regionTargetPct: map[string]float64{
			"sub_bass": 0.10, "bass": 0.17, "low_mid": 0.16, "mid": 0.20,
			"upper_mid": 0.16, "presence": 0.13, "air": 0.08,
		},
	},
	types.ClassQuietDynamic: {
		baselineLUFS: -20, baselineCrestFactor: 18, baselineDR: 16, baselineRatio: 1.3,
		regionTargetPct: map[string]float64{
			"sub_bass": 0.06, "bass": 0.14, "low_mid": 0.17, "mid": 0.25,
			"upper_mid": 0.18, "presence": 0.13, "air": 0.07,
		},
	},
	types.ClassUnknown: {
		baselineLUFS: -14, baselineCrestFactor: 12, baselineDR: 10, baselineRatio: 2.0,
		regionTargetPct: map[string]float64{
			"sub_bass": 1.0 / 7, "bass": 1.0 / 7, "low_mid": 1.0 / 7, "mid": 1.0 / 7,
			"upper_mid": 1.0 / 7, "presence": 1.0 / 7, "air": 1.0 / 7,
		},
	},
}

// referenceFor returns the reference row for class, falling back to the
// unknown row if somehow absent from the table.
func referenceFor(class types.ContentClass) referenceRow {
	if row, ok := referenceTable[class]; ok {
		return row
	}

	return referenceTable[types.ClassUnknown]
}

// regionGainRange is the documented (min_db, max_db) gain bound per
// frequency region, consulted when interpolating the EQ curve.
var regionGainRange = map[string][2]float64{
	"sub_bass":  {-4, 4},
	"bass":      {-3, 3},
	"low_mid":   {-3, 3},
	"mid":       {-2, 2},
	"upper_mid": {-2, 3},
	"presence":  {-2, 4},
	"air":       {-3, 5},
}

// regionPctOf reads the fingerprint's measured percentage for region.
func regionPctOf(fp *types.Fingerprint, region string) float64 {
	switch region {
	case "sub_bass":
		return fp.SubBassPct
	case "bass":
		return fp.BassPct
	case "low_mid":
		return fp.LowMidPct
	case "mid":
		return fp.MidPct
	case "upper_mid":
		return fp.UpperMidPct
	case "presence":
		return fp.PresencePct
	case "air":
		return fp.AirPct
	default:
		return 0
	}
}

// warmOffsetDb and brightOffsetDb are the fixed per-region EQ offsets the
// warm/bright preset biases add on top of the adaptive curve.
var warmOffsetDb = map[string]float64{"bass": 1, "presence": -1}
var brightOffsetDb = map[string]float64{"bass": -1, "presence": 1, "air": 1}
