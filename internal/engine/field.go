package engine

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kartoza/plasma-dashboard/internal/models"
)

const (
	// densityFloor keeps every cell strictly positive so the ratio descriptors are defined
	densityFloor = 0.05
	// fieldNoise is the relative amplitude of the per-cell multiplicative noise
	fieldNoise = 0.03
	// skinEffectThreshold is the power factor above which edge enhancement kicks in
	skinEffectThreshold = 1.2
)

// DefaultGrid is the 20x20 footprint with 10 height layers
var DefaultGrid = models.GridDimensions{X: 20, Y: 20, Z: 10}

// layerProfile holds the height-only terms of the field model for one layer
type layerProfile struct {
	z               float64
	heightDiffusion float64
	waferLoss       float64
	rfCoupling      float64
}

func newLayerProfile(k, layers int, injectionDecay float64) layerProfile {
	z := float64(k) / float64(layers-1)
	return layerProfile{
		z:               z,
		heightDiffusion: math.Exp(-injectionDecay * (1 - z)),
		waferLoss:       1 - 0.15*math.Exp(-4*z),
		rfCoupling:      1 + 0.2*math.Sin(math.Pi*z),
	}
}

// pulseModulation scales generation by the effective on-time of a pulsed discharge
func pulseModulation(p models.ProcessParameters) float64 {
	if !p.PulseEnabled {
		return 1
	}
	return (p.PulseDutyCycle / 100) * (1 + math.Log10(p.PulseFrequency/1000)*0.1)
}

// SimulateField builds the 3D radical density grid and its descriptors.
// Gas enters through the showerhead at the top layer and diffuses toward the wafer at k=0.
func SimulateField(p models.ProcessParameters, f Factors, dims models.GridDimensions, src Source) models.RadicalDistribution {
	injectionDecay := 0.2 + (1-f.Pressure)*0.5 + f.Ar*0.15
	radialDecay := 0.2 + (1-f.Pressure)*0.3 + f.Power*0.2
	wallLossCoeff := (0.3 + (1-f.Pressure)*0.2) * f.Aging
	baseGeneration := f.Power * (1 + f.CF4*0.5) * (1 - f.Pressure*0.3)
	generation := baseGeneration * pulseModulation(p)

	grid := make([][][]float64, dims.Z)
	for k := range grid {
		layer := newLayerProfile(k, dims.Z, injectionDecay)
		wallScale := wallLossCoeff * 0.6 * (1 + 0.2*(1-layer.z))

		plane := make([][]float64, dims.Y)
		for i := range plane {
			y := 2*float64(i)/float64(dims.Y-1) - 1
			row := make([]float64, dims.X)
			for j := range row {
				x := 2*float64(j)/float64(dims.X-1) - 1
				r2 := x*x + y*y
				rWall := math.Max(math.Abs(x), math.Abs(y))

				radial := math.Exp(-r2 * radialDecay)
				wallLoss := math.Exp(-wallScale * rWall * rWall)
				edgeBoost := f.Pressure * 0.25 * (1 - math.Exp(-r2*2)) * f.AgingEdgePenalty

				density := generation*radial*layer.heightDiffusion*layer.waferLoss*layer.rfCoupling*wallLoss +
					edgeBoost*baseGeneration*layer.heightDiffusion
				if f.Power > skinEffectThreshold {
					density += 0.1 * r2 * (f.Power - skinEffectThreshold) * layer.heightDiffusion
				}

				density += uniform(src, -0.5, 0.5) * fieldNoise * density
				row[j] = roundTo(math.Max(density, densityFloor), 4)
			}
			plane[i] = row
		}
		grid[k] = plane
	}

	dist := models.RadicalDistribution{
		Grid:               grid,
		Slice2D:            grid[dims.Z/2],
		Dimensions:         dims,
		HighEnergyFraction: 0.15 + f.Power*0.2 - f.Pressure*0.1,
		ResidenceTimeIndex: (10 / f.Pressure) * (1 + f.Ar*0.2),
	}
	describe(&dist)
	return dist
}

// describe fills the grid-derived descriptors of a distribution
func describe(d *models.RadicalDistribution) {
	dims := d.Dimensions
	mid := dims.Z / 2
	cy, cx := dims.Y/2, dims.X/2

	center := d.Grid[mid][cy][cx]
	d.CenterEdgeRatio = center / wallMidpointMean(d.Grid[mid], cx, cy)

	d.TopBottomGradient = layerMean(d.Grid[dims.Z-1]) / layerMean(d.Grid[0])

	all := make([]float64, 0, dims.X*dims.Y*dims.Z)
	var wallSum, columnSum float64
	for _, plane := range d.Grid {
		for _, row := range plane {
			all = append(all, row...)
		}
		wallSum += wallMidpointMean(plane, cx, cy)
		columnSum += plane[cy][cx]
	}

	mean, std := stat.PopMeanStdDev(all, nil)
	d.VerticalUniformity = 100 - (std/mean)*100
	d.WallLossFactor = 1 - wallSum/columnSum
}

// wallMidpointMean averages the four cells where the center lines meet the walls
func wallMidpointMean(plane [][]float64, cx, cy int) float64 {
	last := len(plane) - 1
	width := len(plane[0]) - 1
	return (plane[cy][0] + plane[cy][width] + plane[0][cx] + plane[last][cx]) / 4
}

func layerMean(plane [][]float64) float64 {
	var sum float64
	var n int
	for _, row := range plane {
		sum += floats.Sum(row)
		n += len(row)
	}
	return sum / float64(n)
}

func roundTo(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}
