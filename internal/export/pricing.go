package export

import (
	"math"

	"github.com/atosab2b/catalog-export/internal/catalog"
)

// priceTolerance is the largest baseline/reference difference still counted
// as "same price" when deciding discount exemptions.
const priceTolerance = 0.01

// computeExemptCodes returns the article codes whose baseline price already
// matches every reference account's price within tolerance. Those articles
// are never re-discounted. A code missing from any reference list is not
// exempt, and with no reference lists nothing is.
func computeExemptCodes(baseline []catalog.Article, referenceLists map[string][]catalog.Article) map[string]bool {
	exempt := make(map[string]bool)
	if len(referenceLists) == 0 {
		return exempt
	}

	refPrices := make([]map[string]float64, 0, len(referenceLists))
	for _, list := range referenceLists {
		prices := make(map[string]float64, len(list))
		for _, article := range list {
			prices[article.Codigo] = article.PrecioVenta
		}
		refPrices = append(refPrices, prices)
	}

	for _, article := range baseline {
		matchesAll := true
		for _, prices := range refPrices {
			refPrice, ok := prices[article.Codigo]
			if !ok || math.Abs(refPrice-article.PrecioVenta) >= priceTolerance {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			exempt[article.Codigo] = true
		}
	}

	return exempt
}

// roundPrice rounds half away from zero at two decimals, matching how the
// catalog formats prices.
func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

func applyDiscount(base float64, discountPercent float64) float64 {
	return roundPrice(base * (1 - discountPercent/100))
}
