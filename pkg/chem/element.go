package chem

type element struct {
	number    int
	mass      float64
	valences  []int
	organic   bool
	aromatics bool
}

// Average atomic masses (IUPAC, abridged) and default valences.
var elements = map[string]element{
	"H":  {number: 1, mass: 1.008, valences: []int{1}},
	"Li": {number: 3, mass: 6.94, valences: []int{1}},
	"B":  {number: 5, mass: 10.81, valences: []int{3}, organic: true, aromatics: true},
	"C":  {number: 6, mass: 12.011, valences: []int{4}, organic: true, aromatics: true},
	"N":  {number: 7, mass: 14.007, valences: []int{3, 5}, organic: true, aromatics: true},
	"O":  {number: 8, mass: 15.999, valences: []int{2}, organic: true, aromatics: true},
	"F":  {number: 9, mass: 18.998, valences: []int{1}, organic: true},
	"Na": {number: 11, mass: 22.990, valences: []int{1}},
	"Mg": {number: 12, mass: 24.305, valences: []int{2}},
	"Al": {number: 13, mass: 26.982, valences: []int{3}},
	"Si": {number: 14, mass: 28.085, valences: []int{4}},
	"P":  {number: 15, mass: 30.974, valences: []int{3, 5}, organic: true, aromatics: true},
	"S":  {number: 16, mass: 32.06, valences: []int{2, 4, 6}, organic: true, aromatics: true},
	"Cl": {number: 17, mass: 35.45, valences: []int{1}, organic: true},
	"K":  {number: 19, mass: 39.098, valences: []int{1}},
	"Ca": {number: 20, mass: 40.078, valences: []int{2}},
	"Mn": {number: 25, mass: 54.938, valences: []int{2, 4, 7}},
	"Fe": {number: 26, mass: 55.845, valences: []int{2, 3}},
	"Co": {number: 27, mass: 58.933, valences: []int{2, 3}},
	"Ni": {number: 28, mass: 58.693, valences: []int{2}},
	"Cu": {number: 29, mass: 63.546, valences: []int{1, 2}},
	"Zn": {number: 30, mass: 65.38, valences: []int{2}},
	"As": {number: 33, mass: 74.922, valences: []int{3, 5}, aromatics: true},
	"Se": {number: 34, mass: 78.971, valences: []int{2, 4, 6}, aromatics: true},
	"Br": {number: 35, mass: 79.904, valences: []int{1}, organic: true},
	"Ag": {number: 47, mass: 107.87, valences: []int{1}},
	"Sn": {number: 50, mass: 118.71, valences: []int{2, 4}},
	"I":  {number: 53, mass: 126.90, valences: []int{1}, organic: true},
	"Pt": {number: 78, mass: 195.08, valences: []int{2, 4}},
	"Au": {number: 79, mass: 196.97, valences: []int{1, 3}},
	"Hg": {number: 80, mass: 200.59, valences: []int{1, 2}},
	"Pb": {number: 82, mass: 207.2, valences: []int{2, 4}},
}

const hydrogenMass = 1.008

func lookupElement(symbol string) (element, bool) {
	el, ok := elements[symbol]
	return el, ok
}
