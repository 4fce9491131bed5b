package presentation

import (
	"fmt"
	"strconv"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/pipeline"
)

// StatusMessage is the text replacing the loading indicator.
func StatusMessage(st pipeline.Status) string {
	switch st.Kind {
	case pipeline.StatusReady:
		return fmt.Sprintf("Données du %s au %s chargées et fusionnées avec succès !",
			FormatDate(st.From, LayoutLongDate),
			FormatDate(st.To, LayoutLongDate))
	case pipeline.StatusEmpty:
		return NoDataMessage + " : les données de consommation et de production ne se recouvrent pas."
	case pipeline.StatusFailed:
		return "Erreur lors du chargement ou de la fusion des données : " + st.Error
	default:
		return "Chargement et fusion des données..."
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}
