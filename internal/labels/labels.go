// Package labels holds the fixed diagnosis classes the OCT models predict.
package labels

// Count is the number of diagnosis classes every model emits.
const Count = 9

// classes is ordered to match the output units of the exported models.
// Index i always names the same class.
var classes = [Count]string{
	"ARMD",   // age-related macular degeneration
	"CNV",    // choroidal neovascularization
	"CSR",    // central serous retinopathy
	"DME",    // diabetic macular edema
	"DR",     // diabetic retinopathy
	"DRUSEN", // drusen
	"GC",     // glaucoma
	"MH",     // macular hole
	"NORMAL", // healthy retina
}

// Table is an immutable, ordered view of the diagnosis classes.
type Table struct {
	names [Count]string
}

// Default returns the label table shared by all models.
func Default() Table {
	return Table{names: classes}
}

// Len returns the number of classes.
func (t Table) Len() int { return len(t.names) }

// Name returns the class at index i, or "" when i is out of range.
func (t Table) Name(i int) string {
	if i < 0 || i >= len(t.names) {
		return ""
	}
	return t.names[i]
}

// Names returns a copy of the class names in table order.
func (t Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names[:])
	return out
}

// Index returns the position of name in the table, or -1.
func (t Table) Index(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}
