package pdftest

// Layout of the pressuremeter report pages built by ReportPage
const (
	HeaderTop    = 100.0
	PfCentre     = 107.5
	PlCentre     = 207.5
	ModuleCentre = 315.0
)

// ValueRows are the tops of the value rows under the headers
var ValueRows = []float64{200, 250, 300, 350}

// Centred places s at size 10 with its horizontal centre at x
func Centred(s string, x, top float64) Text {
	return Text{S: s, X: x - Width(s, 10)/2, Top: top, Size: 10}
}

// ReportPage lays out one page of a pressuremeter report: the borehole
// name, the Pf*, Pl* and Module headers and a column of values under each.
// An empty name leaves the page unnamed.
func ReportPage(name string, pf, pl, module []string) Page {
	page := Page{
		Centred("Pf*", PfCentre, HeaderTop),
		Centred("Pl*", PlCentre, HeaderTop),
		Centred("Module", ModuleCentre, HeaderTop),
	}
	if name != "" {
		page = append(page, Text{S: name, X: 40, Top: 40, Size: 10})
	}
	for _, col := range []struct {
		centre float64
		values []string
	}{
		{PfCentre, pf},
		{PlCentre, pl},
		{ModuleCentre, module},
	} {
		for i, v := range col.values {
			page = append(page, Centred(v, col.centre, ValueRows[i]))
		}
	}
	return page
}
