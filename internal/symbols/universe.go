package symbols

// Universe represents a built-in ticker list, used when no list file exists
type Universe string

const (
	UniverseIBOV Universe = "IBOV"
	UniverseTest Universe = "test" // small set for quick runs
)

// Universes returns the built-in universes
func Universes() []Universe {
	return []Universe{UniverseIBOV, UniverseTest}
}

// GetUniverse returns the tickers of a built-in universe, nil if unknown
func GetUniverse(u Universe) []string {
	switch u {
	case UniverseIBOV:
		return IBOVTickers
	case UniverseTest:
		return TestTickers
	default:
		return nil
	}
}

// TestTickers is a small set of liquid B3 shares
var TestTickers = []string{
	"PETR4", "VALE3", "ITUB4", "BBDC4", "BBAS3",
	"ABEV3", "WEGE3", "B3SA3", "RENT3", "SUZB3",
}

// IBOVTickers is a representative subset of the Ibovespa components
var IBOVTickers = []string{
	"ABEV3", "ALOS3", "ASAI3", "AZUL4", "B3SA3", "BBAS3", "BBDC3", "BBDC4", "BBSE3", "BEEF3",
	"BPAC11", "BRAP4", "BRFS3", "BRKM5", "CCRO3", "CMIG4", "CMIN3", "COGN3", "CPFE3", "CPLE6",
	"CRFB3", "CSAN3", "CSNA3", "CVCB3", "CYRE3", "DXCO3", "EGIE3", "ELET3", "ELET6", "EMBR3",
	"ENEV3", "ENGI11", "EQTL3", "EZTC3", "FLRY3", "GGBR4", "GOAU4", "HAPV3", "HYPE3", "IGTI11",
	"IRBR3", "ITSA4", "ITUB4", "JBSS3", "KLBN11", "LREN3", "LWSA3", "MGLU3", "MRFG3", "MRVE3",
	"MULT3", "NTCO3", "PCAR3", "PETR3", "PETR4", "PETZ3", "PRIO3", "RADL3", "RAIL3", "RAIZ4",
	"RDOR3", "RECV3", "RENT3", "SANB11", "SBSP3", "SLCE3", "SMTO3", "SUZB3", "TAEE11", "TIMS3",
	"TOTS3", "UGPA3", "USIM5", "VALE3", "VAMO3", "VBBR3", "VIVT3", "WEGE3", "YDUQ3",
}
