package catalog

// Article is one catalog row as returned by the remote service. Codigo is
// the join key everywhere; Descripcion follows the credential's language.
type Article struct {
	Codigo      string  `json:"codigo"`
	Descripcion string  `json:"descripcion"`
	Disponible  int     `json:"disponible"`
	EAN13       string  `json:"ean13"`
	PrecioVenta float64 `json:"precioVenta"`
	UMV         int     `json:"umv"`
}
