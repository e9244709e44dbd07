package export

// CreateExportInput mirrors the job creation request body.
type CreateExportInput struct {
	Grupo       string  `json:"grupo" form:"grupo"`
	Idioma      string  `json:"idioma" form:"idioma"`
	Descuento   float64 `json:"descuento" form:"descuento"`
	SoloStock   bool    `json:"soloStock" form:"soloStock"`
	SinImagenes bool    `json:"sinImagenes" form:"sinImagenes"`
	Email       string  `json:"email" form:"email"` // optional: send the finished file as attachment
}

type CreateExportOutput struct {
	JobID string `json:"jobId"`
}

type ProgressOutput struct {
	Progreso    int    `json:"progreso"`
	Fase        Phase  `json:"fase"`
	Error       string `json:"error,omitempty"`
	Filename    string `json:"filename"`
	EtaSegundos *int   `json:"etaSegundos,omitempty"`
}

// LanguageDefault is the catalog's base language; descriptions in other
// languages are overlaid from a second fetch under that language's account.
const LanguageDefault = "Español"

type headerSet struct {
	Codigo      string
	Descripcion string
	Disponible  string
	EAN         string
	Precio      string
	UMV         string
	Imagen      string
}

var headerTranslations = map[string]headerSet{
	"Español":  {"Código", "Descripción", "Stock", "EAN", "Precio", "UMV", "Imagen"},
	"Inglés":   {"Code", "Description", "Available", "EAN", "Price", "MOQ", "Image"},
	"Francés":  {"Code", "Description", "Stock", "EAN", "Prix", "MOQ", "Image"},
	"Italiano": {"Codice", "Descrizione", "Stock", "EAN", "Prezzo", "MOQ", "Immagine"},
}

func IsValidLanguage(lang string) bool {
	_, ok := headerTranslations[lang]
	return ok
}
