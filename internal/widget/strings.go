package widget

// locale holds every user-facing string the engine can emit. The
// response language comes from the bot profile; anything unknown falls
// back to English.
type locale struct {
	welcome        string
	welcomeGeneric string

	suggestServices string
	askServices     string
	suggestHours    string
	askHours        string
	suggestContact  string
	askContact      string
	suggestBook     string
	askBook         string

	bookingConfirmed string
	bookingFailed    string

	errRateLimit   string
	errDomainAuth  string
	errGeneric     string
	loadFailedNote string
}

var locales = map[string]locale{
	"en": {
		welcome:          "Hi! I'm {name}. How can I help you today?",
		welcomeGeneric:   "Hi! How can I help you today?",
		suggestServices:  "What services do you offer?",
		askServices:      "What services do you offer?",
		suggestHours:     "What are your opening hours?",
		askHours:         "What are your opening hours?",
		suggestContact:   "How can I contact you?",
		askContact:       "How can I contact you?",
		suggestBook:      "Book an appointment",
		askBook:          "I'd like to book an appointment.",
		bookingConfirmed: "Thanks! Your appointment request has been sent. We'll be in touch shortly.",
		bookingFailed:    "Sorry, we couldn't send your appointment request. Please try again later.",
		errRateLimit:     "This assistant is receiving a lot of messages right now. Please try again in a moment.",
		errDomainAuth:    "This assistant isn't available on this website.",
		errGeneric:       "Something went wrong. Please try again.",
		loadFailedNote:   "The assistant failed to load. Please refresh the page.",
	},
	"es": {
		welcome:          "¡Hola! Soy {name}. ¿En qué puedo ayudarte hoy?",
		welcomeGeneric:   "¡Hola! ¿En qué puedo ayudarte hoy?",
		suggestServices:  "¿Qué servicios ofrecen?",
		askServices:      "¿Qué servicios ofrecen?",
		suggestHours:     "¿Cuál es su horario?",
		askHours:         "¿Cuál es su horario?",
		suggestContact:   "¿Cómo puedo contactarlos?",
		askContact:       "¿Cómo puedo contactarlos?",
		suggestBook:      "Reservar una cita",
		askBook:          "Me gustaría reservar una cita.",
		bookingConfirmed: "¡Gracias! Tu solicitud de cita ha sido enviada. Te contactaremos pronto.",
		bookingFailed:    "Lo sentimos, no pudimos enviar tu solicitud de cita. Inténtalo de nuevo más tarde.",
		errRateLimit:     "Este asistente está recibiendo muchos mensajes ahora mismo. Inténtalo de nuevo en un momento.",
		errDomainAuth:    "Este asistente no está disponible en este sitio web.",
		errGeneric:       "Algo salió mal. Inténtalo de nuevo.",
		loadFailedNote:   "El asistente no se pudo cargar. Actualiza la página.",
	},
	"fr": {
		welcome:          "Bonjour ! Je suis {name}. Comment puis-je vous aider ?",
		welcomeGeneric:   "Bonjour ! Comment puis-je vous aider ?",
		suggestServices:  "Quels services proposez-vous ?",
		askServices:      "Quels services proposez-vous ?",
		suggestHours:     "Quels sont vos horaires ?",
		askHours:         "Quels sont vos horaires ?",
		suggestContact:   "Comment puis-je vous contacter ?",
		askContact:       "Comment puis-je vous contacter ?",
		suggestBook:      "Prendre rendez-vous",
		askBook:          "Je souhaite prendre rendez-vous.",
		bookingConfirmed: "Merci ! Votre demande de rendez-vous a été envoyée. Nous vous recontacterons rapidement.",
		bookingFailed:    "Désolé, nous n'avons pas pu envoyer votre demande de rendez-vous. Réessayez plus tard.",
		errRateLimit:     "Cet assistant reçoit beaucoup de messages en ce moment. Réessayez dans un instant.",
		errDomainAuth:    "Cet assistant n'est pas disponible sur ce site.",
		errGeneric:       "Une erreur s'est produite. Veuillez réessayer.",
		loadFailedNote:   "L'assistant n'a pas pu se charger. Veuillez actualiser la page.",
	},
	"de": {
		welcome:          "Hallo! Ich bin {name}. Wie kann ich Ihnen helfen?",
		welcomeGeneric:   "Hallo! Wie kann ich Ihnen helfen?",
		suggestServices:  "Welche Leistungen bieten Sie an?",
		askServices:      "Welche Leistungen bieten Sie an?",
		suggestHours:     "Wie sind Ihre Öffnungszeiten?",
		askHours:         "Wie sind Ihre Öffnungszeiten?",
		suggestContact:   "Wie kann ich Sie erreichen?",
		askContact:       "Wie kann ich Sie erreichen?",
		suggestBook:      "Termin buchen",
		askBook:          "Ich möchte einen Termin buchen.",
		bookingConfirmed: "Danke! Ihre Terminanfrage wurde gesendet. Wir melden uns in Kürze.",
		bookingFailed:    "Ihre Terminanfrage konnte leider nicht gesendet werden. Bitte versuchen Sie es später erneut.",
		errRateLimit:     "Dieser Assistent erhält gerade sehr viele Nachrichten. Bitte versuchen Sie es gleich noch einmal.",
		errDomainAuth:    "Dieser Assistent ist auf dieser Website nicht verfügbar.",
		errGeneric:       "Etwas ist schiefgelaufen. Bitte versuchen Sie es erneut.",
		loadFailedNote:   "Der Assistent konnte nicht geladen werden. Bitte laden Sie die Seite neu.",
	},
}

func localeFor(lang string) locale {
	if loc, ok := locales[lang]; ok {
		return loc
	}
	return locales["en"]
}
