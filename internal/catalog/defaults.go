package catalog

// Default returns the built-in catalog.
func Default() *Catalog {
	reception := Contact{
		Phone:     "+39 055 837 5412",
		Email:     "concierge@villapetriolo.it",
		Extension: "9",
	}
	return &Catalog{
		Restaurant: Restaurant{
			Name:        "La Limonaia",
			Description: "Cucina toscana di stagione con prodotti dell'orto della villa e olio extravergine di nostra produzione.",
			Hours: Hours{
				Lunch:     "12:30 - 14:30",
				Dinner:    "19:30 - 22:30",
				ClosedDay: "lunedì a pranzo",
			},
			Menu: Menu{
				Antipasti: []MenuItem{
					{Name: "Panzanella dell'orto", Description: "pane toscano, pomodori, cipolla rossa, basilico", Price: 14},
					{Name: "Tagliere di salumi e pecorini", Description: "con miele di castagno e marmellata di fichi", Price: 18},
					{Name: "Fiori di zucca ripieni", Description: "ricotta e acciughe", Price: 15},
				},
				Primi: []MenuItem{
					{Name: "Pici all'aglione", Description: "pasta fatta a mano, pomodoro e aglione della Valdichiana", Price: 18},
					{Name: "Pappardelle al ragù di cinghiale", Price: 22},
					{Name: "Risotto ai porcini", Description: "in stagione", Price: 24},
				},
				Secondi: []MenuItem{
					{Name: "Bistecca alla fiorentina", Description: "per due persone, circa 1 kg", Price: 65},
					{Name: "Peposo dell'Impruneta", Description: "con polenta morbida", Price: 28},
					{Name: "Branzino al forno", Description: "patate e olive taggiasche", Price: 30},
				},
				Dolci: []MenuItem{
					{Name: "Cantucci e Vin Santo", Price: 10},
					{Name: "Tiramisù della casa", Price: 9},
					{Name: "Torta della nonna", Price: 8},
				},
			},
			Dietary: []string{
				"Menu vegetariano disponibile ogni giorno",
				"Piatti senza glutine su richiesta",
				"Opzioni vegane preparate dallo chef con un giorno di preavviso",
				"Segnalate allergie e intolleranze al momento della prenotazione",
			},
			Booking: Contact{
				Phone:     "+39 055 837 5400",
				Email:     "ristorante@villapetriolo.it",
				Extension: "2",
				Notes:     "Consigliata la prenotazione per la cena, soprattutto nel fine settimana.",
			},
		},
		Activities: Activities{
			Intro: "Ecco le esperienze che organizziamo per i nostri ospiti:",
			Items: []Activity{
				{Name: "Degustazione in cantina", Description: "Chianti Classico e Vin Santo con il nostro sommelier", Price: 45, Duration: "1 ora e 30", Schedule: "tutti i giorni alle 17:00"},
				{Name: "Corso di cucina toscana", Description: "pasta fresca e dolci tradizionali con lo chef", Price: 90, Duration: "3 ore", Schedule: "martedì e venerdì alle 10:00"},
				{Name: "Passeggiata a cavallo", Description: "tra vigneti e uliveti", Price: 70, Duration: "2 ore", Schedule: "su prenotazione"},
				{Name: "Tour in e-bike", Description: "percorso guidato fino a Greve in Chianti", Price: 55, Duration: "4 ore", Schedule: "mercoledì e sabato alle 9:30"},
				{Name: "Yoga nel giardino", Description: "lezione per tutti i livelli", Price: 25, Duration: "1 ora", Schedule: "ogni mattina alle 8:00"},
			},
			Booking: reception,
		},
		Events: Events{
			Intro: "Questi sono i prossimi eventi in villa:",
			Items: []Event{
				{Name: "Cena sotto le stelle", Date: "venerdì", Time: "20:00", Description: "menu di cinque portate sulla terrazza panoramica", Price: 85},
				{Name: "Musica dal vivo in giardino", Date: "sabato", Time: "21:00", Description: "jazz e bossa nova con aperitivo", Price: 20},
				{Name: "Festa della vendemmia", Date: "ultima domenica di settembre", Time: "11:00", Description: "raccolta dell'uva e pranzo in vigna", Price: 60},
			},
			Booking: reception,
		},
		Services: Services{
			Intro: "Questi sono i servizi a disposizione degli ospiti:",
			Items: []Service{
				{Name: "Spa e centro benessere", Description: "piscina riscaldata, sauna e bagno turco", Hours: "9:00 - 20:00", Price: 0, PriceNote: "incluso per gli ospiti"},
				{Name: "Transfer", Description: "da e per aeroporto di Firenze o stazione", Hours: "su prenotazione", Price: 80},
				{Name: "Servizio in camera", Description: "colazione e piatti leggeri", Hours: "7:00 - 23:00", Price: 0, PriceNote: "secondo menu"},
				{Name: "Lavanderia", Description: "consegna in giornata", Hours: "8:00 - 18:00", Price: 0, PriceNote: "secondo listino"},
				{Name: "Noleggio biciclette", Description: "city bike ed e-bike", Hours: "8:00 - 19:00", Price: 25},
			},
			Spa: Service{
				Name:        "Spa e centro benessere",
				Description: "Piscina interna riscaldata, sauna finlandese, bagno turco e cabine per trattamenti. Massaggi su prenotazione con almeno 24 ore di anticipo.",
				Hours:       "9:00 - 20:00",
				Price:       75,
				PriceNote:   "massaggio di 50 minuti",
			},
			Transfer: Service{
				Name:        "Transfer",
				Description: "Auto con autista da e per l'aeroporto di Firenze, la stazione di Santa Maria Novella o Pisa. Prenotazione entro le 18:00 del giorno precedente.",
				Hours:       "24 ore su 24",
				Price:       80,
				PriceNote:   "Firenze, a tratta; Pisa 150 €",
			},
		},
	}
}
