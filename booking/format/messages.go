package format

import (
	"fmt"
	"strings"

	"github.com/qemplois/assistant/booking"
)

// Links holds the public URLs quoted in informational replies.
type Links struct {
	Cancel     string
	Profile    string
	BecomePro  string
	PaymentFmt string
}

// DefaultLinks points at the production site.
var DefaultLinks = Links{
	Cancel:     "https://qemplois.ca/cancel",
	Profile:    "https://qemplois.ca/profil",
	BecomePro:  "https://qemplois.ca/devenir-pro",
	PaymentFmt: "https://pay.qemplois.ca/sess_%s",
}

// PaymentURL derives the hosted payment link for a booking id.
func (l Links) PaymentURL(bookingID string) string {
	token := strings.ReplaceAll(strings.ToLower(bookingID), "-", "")
	return fmt.Sprintf(l.PaymentFmt, token)
}

// Welcome lists the service catalog.
func Welcome() string {
	var b strings.Builder
	b.WriteString("Bonjour! 👋 Je suis Q-Emplois, votre assistant pour trouver des professionnels au Québec.\n\n")
	b.WriteString("Quel service cherchez-vous aujourd'hui?\n\n")
	for _, s := range booking.Catalog {
		fmt.Fprintf(&b, "%s. %s\n", s.Key, s.Label())
	}
	b.WriteString("\n(Entrez le numéro ou nom du service)")
	return b.String()
}

// WelcomeAgain is shown once a booking is completed.
func WelcomeAgain() string {
	return Welcome() + "\n\nVotre réservation précédente est terminée. Tapez /start pour en commencer une nouvelle."
}

// Help lists the available commands.
func Help() string {
	return `🆘 AIDE Q-EMPLOIS

Commandes disponibles:
• /start - Commencer une réservation
• /aide - Afficher cette aide
• /mesreservations - Voir mes réservations
• /annuler [numéro] - Annuler une réservation
• /profil - Mon profil
• /devenirpro - Devenir prestataire

Pour réserver, suivez simplement les instructions! 🎯`
}

// CancelInfo points to the cancellation page.
func CancelInfo(l Links) string {
	return "❌ Pour annuler une réservation, visitez: " + l.Cancel
}

// ProfileInfo points to the profile page.
func ProfileInfo(l Links) string {
	return "👤 Gérez votre profil sur " + l.Profile
}

// BecomeProInfo advertises the provider programme.
func BecomeProInfo(l Links) string {
	return fmt.Sprintf(`🌟 Devenez prestataire Q-Emplois!

Rejoignez notre réseau de professionnels:
%s

Avantages:
• Trouvez des clients facilement
• Gérez votre agenda
• Paiements sécurisés`, l.BecomePro)
}

// UnknownCommand answers unrecognised slash commands.
func UnknownCommand() string {
	return "Commande non reconnue. Tapez /aide pour la liste des commandes."
}

// ServiceChosen confirms the service and asks for a date.
func ServiceChosen(s booking.Service) string {
	return fmt.Sprintf("Parfait! Vous avez choisi %s.\n\nPour quelle date avez-vous besoin d'un professionnel?\n(Ex: aujourd'hui, demain, 20 février)", s.Label())
}

// DateChosen confirms the date and asks for a time.
func DateChosen(s *booking.Session) string {
	return fmt.Sprintf("Entendu pour %s.\n\nÀ quelle heure? (Ex: 14h, 9h30)", DateLong(*s.Date))
}

// TimeChosen confirms the time and asks for the address.
func TimeChosen(s *booking.Session) string {
	return fmt.Sprintf("Parfait pour %s.\n\nOù se situe le travail? (adresse complète avec code postal si possible)", s.Time)
}

// Reprompts for each step of the conversation.
const (
	ServiceReprompt = "Je n'ai pas compris. Veuillez choisir un numéro de 1 à 5 ou le nom du service."
	DateReprompt    = "Je n'ai pas compris la date. Essayez: aujourd'hui, demain, ou une date comme '20 février'."
	TimeReprompt    = "Je n'ai pas compris l'heure. Essayez: 14h, 9h30, 14:30"
	AddressReprompt = "L'adresse semble incomplète. Veuillez entrer une adresse complète (numéro civique, rue, ville)."
	ConfirmReprompt = "Veuillez répondre 'oui' pour confirmer ou 'non' pour annuler."
	NewDatePrompt   = "D'accord. Pour quelle nouvelle date cherchez-vous?"
	RetryDeclined   = "D'accord. Tapez /start quand vous voudrez recommencer."
	EmptyListPrompt = "Répondez 'oui' pour chercher à une autre date, ou tapez /start pour recommencer."

	BookingsUnavailable = "📋 Vos réservations sont momentanément indisponibles. Réessayez plus tard."
)

// ProviderReprompt states the valid pick range.
func ProviderReprompt(n int) string {
	return fmt.Sprintf("Veuillez entrer un numéro valide (%s) ou tapez 'autre' pour changer la date.", Range(n))
}

// OtherProviderPrompt follows a declined summary.
func OtherProviderPrompt(n int) string {
	return fmt.Sprintf("D'accord. Souhaitez-vous choisir un autre professionnel? (%s)", Choices(n))
}

// NoProviders apologises for an empty search.
func NoProviders() string {
	return `😔 Aucun professionnel disponible pour cette date/heure.

Essayez:
• Une autre date
• Un autre créneau horaire
• Un rayon de recherche plus grand

Voulez-vous chercher à nouveau? (oui/non)`
}

// ProviderList numbers the providers in search order, starting at 1.
func ProviderList(s *booking.Session) string {
	if len(s.Providers) == 0 {
		return NoProviders()
	}
	var b strings.Builder
	noun := "professionnels"
	if len(s.Providers) == 1 {
		noun = "professionnel"
	}
	fmt.Fprintf(&b, "🔍 J'ai trouvé %d %s:\n\n", len(s.Providers), noun)
	for i, p := range s.Providers {
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, p.Name, reputation(p))
		line := Price(p.PricePerHour) + "/heure"
		if p.DistanceKm != nil {
			line += " - " + Distance(*p.DistanceKm)
		}
		fmt.Fprintf(&b, "   %s\n\n", line)
	}
	fmt.Fprintf(&b, "Quel professionnel préférez-vous? (%s)\n", Choices(len(s.Providers)))
	b.WriteString("Ou tapez 'autre' pour chercher une autre date.")
	return b.String()
}

func reputation(p booking.Provider) string {
	if p.Rating == nil {
		return ""
	}
	out := " ⭐ " + Rating(*p.Rating)
	if p.Reviews != nil {
		out += fmt.Sprintf(" (%d avis)", *p.Reviews)
	}
	return out
}

func when(s *booking.Session) string {
	return fmt.Sprintf("%s à %s", DateLong(*s.Date), s.Time)
}

// Summary recaps the booking before confirmation.
func Summary(s *booking.Session) string {
	p := s.Selected
	var b strings.Builder
	b.WriteString("📋 Récapitulatif:\n\n")
	fmt.Fprintf(&b, "Service: %s\n", booking.DisplayService(s.Service))
	fmt.Fprintf(&b, "Date: %s\n", when(s))
	fmt.Fprintf(&b, "Lieu: %s\n\n", s.Location.Raw)
	fmt.Fprintf(&b, "Professionnel: %s\n", p.Name)
	if rep := reputation(*p); rep != "" {
		fmt.Fprintf(&b, "%s\n", strings.TrimSpace(rep))
	}
	fmt.Fprintf(&b, "💰 Prix estimé: %s (%d heures)\n\n", Price(*s.PriceEstimate), booking.DefaultJobHours)
	b.WriteString("Confirmer la réservation? (oui/non)")
	return b.String()
}

// Confirmation announces the booking, its payment link and arrival window.
func Confirmation(s *booking.Session) string {
	first := s.Selected.Name
	if fields := strings.Fields(first); len(fields) > 0 {
		first = fields[0]
	}
	c := *s.Time
	from := max(0, c.Minute-15)
	to := min(59, c.Minute+15)
	return fmt.Sprintf(`🎉 Réservation confirmée!

Numéro: #%s

💳 Paiement sécurisé:
%s

Vous recevrez un SMS de confirmation.
%s arrivera %s entre %dh%02d et %dh%02d.

Merci d'utiliser Q-Emplois! 🙏`,
		s.BookingID, s.PaymentURL, first, strings.ToLower(DateLong(*s.Date)), c.Hour, from, c.Hour, to)
}

// Bookings lists ledger records for /mesreservations.
func Bookings(recs []booking.Record) string {
	if len(recs) == 0 {
		return "📋 Vous n'avez aucune réservation pour le moment. Tapez /start pour réserver."
	}
	var b strings.Builder
	b.WriteString("📋 Vos réservations:\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "\n#%s\n%s - %s à %s\n%s - %s\n",
			r.BookingID,
			booking.DisplayService(r.Service),
			DateLong(r.ScheduledAt),
			clockOf(r.ScheduledAt),
			r.ProviderName,
			Price(r.Estimate),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// AuthRequired invites an unlinked user to create an account.
func AuthRequired(linkURL string) string {
	return fmt.Sprintf(`Bienvenue sur Q-Emplois! 🔧

Pour réserver des services, vous devez créer un compte.

🔗 Créer un compte: %s

(Le lien est valide 15 minutes)`, linkURL)
}

// Messages for identity and infrastructure failures.
const (
	AuthPrompt  = "Veuillez d'abord vous connecter avec /start"
	Unavailable = "😔 Un problème technique est survenu. Veuillez réessayer dans quelques instants."
	SlowDown    = "⏳ Doucement! Attendez un instant avant d'envoyer un autre message."
	TextOnly    = "Je ne comprends que les messages texte pour le moment. 🙂"
)
