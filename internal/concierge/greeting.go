package concierge

var greetings = map[string]string{
	"it": "Buongiorno e benvenuto a Villa Petriolo, come posso aiutarla?",
	"en": "Hello and welcome to Villa Petriolo, how can I help you?",
	"fr": "Bonjour et bienvenue à la Villa Petriolo, comment puis-je vous aider ?",
	"de": "Guten Tag und willkommen in der Villa Petriolo, wie kann ich Ihnen helfen?",
	"es": "Hola y bienvenido a Villa Petriolo, ¿en qué puedo ayudarle?",
	"pt": "Olá e bem-vindo à Villa Petriolo, como posso ajudar?",
	"ru": "Здравствуйте и добро пожаловать на виллу Петриоло, чем я могу помочь?",
	"zh": "您好，欢迎来到佩特里奥洛别墅，请问有什么可以帮您？",
	"ja": "こんにちは、ヴィラ・ペトリオーロへようこそ、何かお手伝いできることはありますか？",
}

// Greeting returns a one-sentence welcome in the given language, falling
// back to Italian.
func Greeting(lang string) string {
	if g, ok := greetings[lang]; ok {
		return g
	}
	return greetings["it"]
}
