package records

// Table names a sheet range of the record store and its exact column set.
// Columns are written in this order on every write so external readers of
// the sheet or CSV file keep working.
type Table struct {
	Name   string
	Range  string
	Header []string
}

var (
	PurchasesTable = Table{
		Name:   "purchases",
		Range:  "Operations!A:E",
		Header: []string{"Date", "Engin", "PU", "Montant", "Quantite_L"},
	}
	DeliveriesTable = Table{
		Name:   "deliveries",
		Range:  "Commandes!A:E",
		Header: []string{"Date", "N° Châssis", "Montant", "PU", "Quantité livrée (L)"},
	}
	SalesTable = Table{
		Name:   "sales",
		Range:  "Ventes!A:C",
		Header: []string{"Date", "Quantité vendue (L)", "Montant encaissé"},
	}
	AgentSalesTable = Table{
		Name:   "agent_sales",
		Range:  "VentesAgents!A:H",
		Header: []string{"Date", "Commercial", "Contact", "Quantité", "Prix unitaire", "Montant total", "Commune", "Commentaire"},
	}
)

// Tables lists every table the depot persists.
var Tables = []Table{PurchasesTable, DeliveriesTable, SalesTable, AgentSalesTable}

// TableByName resolves a table from its short name.
func TableByName(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

func (t Table) headerRow() []interface{} {
	row := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		row[i] = h
	}
	return row
}
