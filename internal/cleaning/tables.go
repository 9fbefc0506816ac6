package cleaning

// Default values substituted when a field cannot be derived.
const (
	UnknownExchange     = "UNKNOWN"
	UnknownCountry      = "UNKNOWN"
	OtherExchange       = "Other Exchange"
	OtherCountry        = "Other"
	OtherRegion         = "Other"
	GeneralTechnology   = "General Technology"
	OtherTechnology     = "Other Technology"
	DefaultCompanyName  = "Unknown Company"
	DefaultIndustry     = "Technology"
	DefaultCountryInput = "Unknown"
)

// Replacement is one literal substring substitution applied to company names.
type Replacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Category is a tech category and the lower-case keywords that select it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// nameReplacements is applied in order; later rules see the output of earlier ones.
var nameReplacements = []Replacement{
	{"Corp.", "Corporation"},
	{"Inc.", "Incorporated"},
	{"Co.", "Company"},
	{"Ltd.", "Limited"},
	{"Plc", "PLC"},
	{"&", "and"},
}

var exchangeNames = map[string]string{
	"SZ": "Shenzhen Stock Exchange",
	"SS": "Shanghai Stock Exchange",
	"KS": "Korea Stock Exchange",
	"T":  "Tokyo Stock Exchange",
	"HK": "Hong Kong Stock Exchange",
	"L":  "London Stock Exchange",
	"PA": "Paris Stock Exchange",
	"DE": "Frankfurt Stock Exchange",
	"MC": "Madrid Stock Exchange",
	"MI": "Milan Stock Exchange",
	"AS": "Amsterdam Stock Exchange",
	"BR": "Brussels Stock Exchange",
	"CO": "Copenhagen Stock Exchange",
	"HE": "Helsinki Stock Exchange",
	"ST": "Stockholm Stock Exchange",
	"OL": "Oslo Stock Exchange",
	"SW": "Swiss Exchange",
	"VI": "Vienna Stock Exchange",
	"PR": "Prague Stock Exchange",
	"WA": "Warsaw Stock Exchange",
	"AT": "Athens Stock Exchange",
	"IS": "Istanbul Stock Exchange",
	"TA": "Tel Aviv Stock Exchange",
	"JK": "Jakarta Stock Exchange",
	"BK": "Bangkok Stock Exchange",
	"KL": "Kuala Lumpur Stock Exchange",
	"SI": "Singapore Stock Exchange",
	"AX": "Australian Stock Exchange",
	"NZ": "New Zealand Stock Exchange",
	"TO": "Toronto Stock Exchange",
	"V":  "Vancouver Stock Exchange",
	"MX": "Mexico Stock Exchange",
	"SA": "Sao Paulo Stock Exchange",
	"BA": "Buenos Aires Stock Exchange",
}

var countryFixes = map[string]string{
	"UK":  "GB",
	"USA": "US",
}

// legacyCountryFixes holds remaps that only apply when explicitly enabled.
// CZ collides with the Czech Republic entry below; the upstream dataset used it
// for Chinese listings.
var legacyCountryFixes = map[string]string{
	"CZ": "CN",
}

var countryNames = map[string]string{
	"CN": "China",
	"US": "United States",
	"KR": "South Korea",
	"JP": "Japan",
	"TW": "Taiwan",
	"HK": "Hong Kong",
	"SG": "Singapore",
	"IN": "India",
	"AU": "Australia",
	"NZ": "New Zealand",
	"DE": "Germany",
	"GB": "United Kingdom",
	"FR": "France",
	"IT": "Italy",
	"ES": "Spain",
	"NL": "Netherlands",
	"BE": "Belgium",
	"CH": "Switzerland",
	"SE": "Sweden",
	"NO": "Norway",
	"DK": "Denmark",
	"FI": "Finland",
	"AT": "Austria",
	"PL": "Poland",
	"CZ": "Czech Republic",
	"GR": "Greece",
	"TR": "Turkey",
	"IL": "Israel",
	"CA": "Canada",
	"MX": "Mexico",
	"BR": "Brazil",
	"AR": "Argentina",
	"ID": "Indonesia",
	"TH": "Thailand",
	"MY": "Malaysia",
	"PH": "Philippines",
	"VN": "Vietnam",
}

const (
	regionAPAC    = "Asia-Pacific"
	regionNA      = "North America"
	regionLatAm   = "Latin America"
	regionEurope  = "Europe"
	regionMidEast = "Middle East"
)

var countryRegions = map[string]string{
	"CN": regionAPAC, "KR": regionAPAC, "JP": regionAPAC, "TW": regionAPAC,
	"HK": regionAPAC, "SG": regionAPAC, "IN": regionAPAC, "AU": regionAPAC,
	"NZ": regionAPAC, "ID": regionAPAC, "TH": regionAPAC, "MY": regionAPAC,
	"PH": regionAPAC, "VN": regionAPAC,
	"US": regionNA, "CA": regionNA,
	"MX": regionLatAm, "BR": regionLatAm, "AR": regionLatAm,
	"DE": regionEurope, "GB": regionEurope, "FR": regionEurope, "IT": regionEurope,
	"ES": regionEurope, "NL": regionEurope, "BE": regionEurope, "CH": regionEurope,
	"SE": regionEurope, "NO": regionEurope, "DK": regionEurope, "FI": regionEurope,
	"AT": regionEurope, "PL": regionEurope, "CZ": regionEurope, "GR": regionEurope,
	"TR": regionMidEast, "IL": regionMidEast,
}

// techCategories is checked in order; the first category with a matching keyword wins.
var techCategories = []Category{
	{"Software", []string{
		"software", "systems", "solutions", "application", "platform",
		"cloud", "saas", "digital", "cyber", "information technology",
	}},
	{"Hardware", []string{
		"semiconductor", "electronics", "electric", "components",
		"devices", "hardware", "manufacturing", "equipment",
	}},
	{"Telecommunications", []string{
		"telecom", "communications", "wireless", "mobile", "network",
		"broadband", "5g", "fiber",
	}},
	{"Internet Services", []string{
		"internet", "online", "web", "portal", "e-commerce",
		"digital media", "social",
	}},
	{"AI & Data", []string{
		"artificial intelligence", "ai", "machine learning", "data",
		"analytics", "big data", "intelligence", "algorithm",
	}},
	{"Gaming & Entertainment", []string{
		"game", "gaming", "entertainment", "interactive", "media",
		"animation", "virtual",
	}},
	{"Fintech", []string{
		"fintech", "payment", "financial technology", "blockchain",
		"crypto", "digital payment", "banking technology",
	}},
	{"Biotech & HealthTech", []string{
		"biotech", "bioinformatics", "medical technology", "health tech",
		"healthcare technology", "pharma tech", "life sciences",
	}},
	{"Industrial Tech", []string{
		"industrial", "automation", "robotics", "iot", "smart",
		"control systems", "sensors",
	}},
	{"CleanTech", []string{
		"renewable", "solar", "battery", "energy storage", "clean tech",
		"green technology", "sustainable",
	}},
}

var genericTechTokens = []string{"technology", "tech", "it "}
