package output

// DefaultAssumptions lists modeling assumptions rendered in detailed outputs.
var DefaultAssumptions = []string{
	"Capital gains are taxed as ordinary income",
	"Residents are full-year; part-year residency is not modeled",
	"Nonresident deductions and credits are prorated by apportioned income",
	"Reciprocity agreements exempt wages only",
	"Figures are estimates and are not a substitute for filed returns",
}
