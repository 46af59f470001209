package help

// HelpText contains information about a field
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts contains help information for all wizard fields
var Texts = map[string]HelpText{
	"dims": {
		Title:       "FIELD OF VIEW",
		Description: "Image size in pixels, height x width.",
		Details:     "Format: HxW (e.g., 48x48, 64x128). Centers are kept away from the edges by the boundary margin.",
	},
	"cells": {
		Title:       "CELLS",
		Description: "Number of neurons kept in the dataset.",
		Details:     "About 1.5x as many candidates are drawn; the most overlapping ones are pruned.",
	},
	"sig": {
		Title:       "FOOTPRINT SIZE",
		Description: "Gaussian scale of each footprint, in pixels.",
		Details:     "One value for round cells, two values (rows,cols) for elongated ones.",
	},
	"shape": {
		Title:       "FOOTPRINT SHAPE",
		Description: "Ring-like or solid footprints.",
		Details: `Difference of Gaussians - soma with a dimmer nucleus
Gaussian - plain blob`,
	},
	"frames": {
		Title:       "FRAMES",
		Description: "Duration of the movie in frames.",
		Details:     "The first half of the cells stays silent for the warm-up period, then turns on one by one.",
	},
	"framerate": {
		Title:       "FRAME RATE",
		Description: "Imaging rate in Hz.",
		Details:     "Together with the decay constant this sets how slowly calcium traces fall back.",
	},
	"firerate": {
		Title:       "FIRING RATE",
		Description: "Mean number of events per second and cell.",
		Details:     "Spikes are drawn independently in every frame with probability firerate/framerate.",
	},
	"indicator": {
		Title:       "INDICATOR",
		Description: "Calcium indicator preset.",
		Details: `Sets the decay constant of the traces.
GCaMP6s is slow and bright, GCaMP6f and jGCaMP7f are fast.`,
	},
	"noise": {
		Title:       "NOISE",
		Description: "Standard deviation of the additive Gaussian noise.",
		Details:     "In the same units as the baseline fluorescence (default baseline: 10).",
	},
	"fluctuations": {
		Title:       "BACKGROUND FLUCTUATIONS",
		Description: "Correlation lengths of the background, temporal,spatial.",
		Details:     "Format: 50,300 (frames, pixels), or none for a flat background.",
	},
	"seed": {
		Title:       "SEED",
		Description: "Seed of the random generator.",
		Details:     "The same seed and parameters always give the same dataset.",
	},
	"output": {
		Title:       "OUTPUT PATH",
		Description: "Base path of the written files, without extension.",
		Details:     "store writes <path>.db, h5 writes <path>.h5, dicom writes one image per frame into <path>/.",
	},
	"formats": {
		Title:       "FORMATS",
		Description: "Output formats to write.",
		Details: `store - SQLite mapping store (inspect with calciumforge inspect)
h5 - HDF5 datasets
dicom - 16-bit secondary capture images, one per frame`,
	},
	"plots": {
		Title:       "DIAGNOSTIC PLOTS",
		Description: "Colormap of the diagnostic figures.",
		Details:     "Writes traces, projected residuals and max/mean/correlation projections next to the output. Choose none to skip.",
	},
}
