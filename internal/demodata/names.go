package demodata

var firstNames = []string{
	"Yasmine", "Omar", "Salma", "Karim", "Nadia", "Youssef", "Hind", "Mehdi",
	"Imane", "Hamza", "Sara", "Anas", "Khadija", "Reda", "Meryem", "Ayoub",
	"Laila", "Soufiane", "Zineb", "Ilyas", "Fatima", "Adam", "Ghita", "Bilal",
}

var lastNames = []string{
	"Alaoui", "Bennani", "El Idrissi", "Tazi", "Berrada", "Chraibi", "Fassi",
	"Amrani", "Kettani", "Benjelloun", "Lahlou", "Ouazzani", "Sebti", "Naciri",
	"Bouzidi", "El Khatib", "Mansouri", "Zerouali",
}

var streets = []string{
	"Rue Atlas", "Avenue Hassan II", "Boulevard Zerktouni", "Rue Ibn Batouta",
	"Avenue Mohammed V", "Rue de Fès", "Boulevard Anfa", "Rue Oued Sebou",
}

var orderNotes = []string{
	"", "", "", "Call before delivery", "Leave with the concierge",
	"Fragile", "Deliver after 6pm", "Gift wrap",
}

type seedCity struct {
	name   string
	region string
	fee    int64
}

var defaultCities = []seedCity{
	{"Casablanca", "Casablanca-Settat", 25},
	{"Rabat", "Rabat-Salé-Kénitra", 30},
	{"Marrakech", "Marrakech-Safi", 35},
	{"Fès", "Fès-Meknès", 35},
	{"Tanger", "Tanger-Tétouan-Al Hoceïma", 40},
	{"Agadir", "Souss-Massa", 45},
}

var defaultStores = []string{"Main store", "Online shop"}

type seedShipper struct {
	name     string
	template string
}

var defaultShippers = []seedShipper{
	{"Amana", "https://www.amana.ma/tracking?code={trackingNumber}"},
	{"CTM Messagerie", "https://www.ctm.ma/suivi/{trackingNumber}"},
}

type seedMethod struct {
	name string
	fee  string
}

var defaultMethods = []seedMethod{
	{"Cash on delivery", "2"},
	{"Bank transfer", "0"},
	{"Card", "1.5"},
}
