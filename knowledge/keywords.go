package knowledge

// keywordClauses maps trigger keywords found in the project description to
// the general clause they activate. Clauses 52-66 are mandatory and never
// need a trigger; everything above is pulled in only when one of its
// keywords appears in the text. Several keywords may point at the same
// clause; one hit is enough.
var keywordClauses = map[string]int{
	// gradnja in objekti
	"gradnj":                52,
	"dozidava":              52,
	"nadzidava":             52,
	"rekonstrukcija":        52,
	"odstranitev":           52,
	"sprememba namembnosti": 54,
	"vrste objektov":        56,
	"nezahtevni objekt":     64,
	"enostavni objekt":      64,
	"razpršena gradnja":     102,
	"nelegalna gradnja":     103,

	// urejanje parcele
	"odmik":              58,
	"odmiki":             58,
	"soglasje soseda":    58,
	"regulacijsk":        57,
	"velikost parcele":   66,
	"parcela objekta":    66,
	"velikost objektov":  59,
	"faktor izrabe":      59,
	"FI":                 59,
	"faktor zazidanosti": 59,
	"FZ":                 59,
	"višina objekt":      59,

	// oblikovanje
	"oblikovanj":      60,
	"fasad":           60,
	"streh":           60,
	"kritina":         60,
	"naklon strehe":   60,
	"zelene površine": 61,
	"FZP":             61,
	"igrišče":         61,

	// infrastruktura
	"parkirišč":              62,
	"parkirna mesta":         62,
	"garaž":                  62,
	"število parkirnih mest": 63,
	"komunaln":               67,
	"priključek":             69,
	"priključitev":           69,
	"greznica":               69,
	"vodovod":                73,
	"kanalizacij":            74,
	"čistilna naprava":       74,
	"plinovod":               76,
	"elektro":                77,
	"daljnovod":              77,
	"javna razsvetljava":     78,
	"telekomunikacijsk":      79,
	"komunikacijsk":          79,

	// varovanje in omejitve
	"varovalni pas":           70,
	"varstvo narave":          81,
	"kulturna dediščina":      82,
	"vplivi na okolje":        83,
	"varstvo voda":            85,
	"vodotok":                 85,
	"priobalnem zemljišču":    85,
	"vodovarstven":            86,
	"varovalni gozd":          88,
	"gozd s posebnim namenom": 89,
	"erozij":                  92,
	"plaz":                    92,
	"plazljiv":                92,
	"potresn":                 93,
	"poplavn":                 94,
	"požar":                   95,
	"hrup":                    98,
	"sevanje":                 99,
	"osončenj":                100,

	// ostalo
	"oglaševanj":          65,
	"odpadk":              80,
	"mineralne surovine":  90,
	"obrambne potrebe":    96,
	"zaklonišč":           96,
	"invalid":             97,
	"dostop za invalide":  97,
	"arhitektonske ovire": 97,
}
