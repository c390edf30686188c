// Package i18n holds the fr/en message catalogue used by templates and error messages.
package i18n

import (
	"context"
	"strings"
)

type ctxKey struct{}

const DefaultLang = "fr"

var catalog = map[string]map[string]string{
	"fr": {
		"required":            "Requis",
		"out_of_range":        "Hors limites",
		"must_be_positive":    "Doit être positif",
		"invalid_choice":      "Choix invalide",
		"invalid_date":        "Date invalide",
		"invalid_number":      "Nombre invalide",
		"does_not_exist":      "N'existe pas",
		"already_exists":      "Existe déjà",
		"unknown_field":       "Champ inconnu",
		"status.draft":        "Brouillon",
		"status.saved":        "Enregistrée",
		"status.sent":         "Envoyée",
		"status.paid":         "Payée",
		"login.invalid":       "Identifiant ou mot de passe incorrect",
		"login.throttled":     "Trop de tentatives, réessayez plus tard",
		"email.failed":        "Erreur lors de l'envoi de l'email",
		"invoices":            "Factures",
		"clients":             "Clients",
		"calendar":            "Calendrier",
		"settings":            "Paramètres",
		"settings.saved":      "Paramètres enregistrés",
		"money.paid":          "Payé",
		"money.unpaid":        "Non payé",
		"money.unsent":        "Non envoyé",
		"invoice.from_file":   "Facture depuis un fichier",
		"pdf.invoice":         "Facture",
		"pdf.date":            "Date",
		"pdf.due":             "Échéance",
		"pdf.bill_to":         "Facturé à",
		"pdf.day":             "Jour",
		"pdf.half_day":        "Demi-journée",
		"pdf.full_day":        "Journée",
		"pdf.amount":          "Montant",
		"pdf.subtotal":        "Total HT",
		"pdf.tax":             "TVA",
		"pdf.total":           "Total TTC",
		"email.subject":       "Facture",
		"email.body":          "Bonjour,\n\nVeuillez trouver ci-joint la facture",
		"home":                "Accueil",
		"login":               "Connexion",
		"logout":              "Déconnexion",
		"username":            "Identifiant",
		"password":            "Mot de passe",
		"save":                "Enregistrer",
		"update":              "Mettre à jour",
		"upload":              "Envoyer",
		"delete":              "Supprimer",
		"none":                "Aucun élément",
		"new_invoice":         "Nouvelle facture",
		"create_invoice":      "Facturer les jours",
		"new_client":          "Nouveau client",
		"number":              "Numéro",
		"client":              "Client",
		"date":                "Date",
		"date_due":            "Échéance",
		"date_paid":           "Payée le",
		"status":              "Statut",
		"total":               "Total",
		"daily_rate":          "Taux journalier",
		"tax":                 "TVA",
		"description":         "Description",
		"days":                "Jours",
		"last_edited":         "Dernières modifications",
		"drafts":              "Brouillons",
		"saved_invoices":      "Factures enregistrées",
		"money_status":        "Situation",
		"send_email":          "Envoyer par email",
		"smtp_password":       "Mot de passe SMTP",
		"upload_pdf":          "Joindre un PDF",
		"download_pdf":        "Télécharger le PDF",
		"name":                "Nom",
		"contact":             "Contact",
		"email":               "Email",
		"phone":               "Téléphone",
		"address":             "Adresse",
		"postal_code":         "Code postal",
		"city":                "Ville",
		"country":             "Pays",
		"vat_number":          "Numéro de TVA",
		"default_daily_rate":  "Taux journalier par défaut",
		"default_tax":         "TVA par défaut",
		"date_format":         "Format de date",
		"currency_symbol":     "Symbole monétaire",
		"symbol_before":       "Symbole avant le montant",
		"decimal_separator":   "Séparateur décimal",
		"thousands_separator": "Séparateur de milliers",
		"smtp_host":           "Serveur SMTP",
		"smtp_port":           "Port SMTP",
		"smtp_username":       "Utilisateur SMTP",
		"example":             "Exemple",
		"calendar.no_days":    "Aucun jour à facturer",
		"pdf.missing":         "Fichier PDF manquant",
		"not_found":           "Introuvable",
	},
	"en": {
		"required":            "Required",
		"out_of_range":        "Out of range",
		"must_be_positive":    "Must be positive",
		"invalid_choice":      "Invalid choice",
		"invalid_date":        "Invalid date",
		"invalid_number":      "Invalid number",
		"does_not_exist":      "Does not exist",
		"already_exists":      "Already exists",
		"unknown_field":       "Unknown field",
		"status.draft":        "Draft",
		"status.saved":        "Saved",
		"status.sent":         "Sent",
		"status.paid":         "Paid",
		"login.invalid":       "Invalid username or password",
		"login.throttled":     "Too many attempts, try again later",
		"email.failed":        "Error sending email",
		"invoices":            "Invoices",
		"clients":             "Clients",
		"calendar":            "Calendar",
		"settings":            "Settings",
		"settings.saved":      "Settings saved",
		"money.paid":          "Paid",
		"money.unpaid":        "Unpaid",
		"money.unsent":        "Unsent",
		"invoice.from_file":   "Invoice from file",
		"pdf.invoice":         "Invoice",
		"pdf.date":            "Date",
		"pdf.due":             "Due",
		"pdf.bill_to":         "Bill to",
		"pdf.day":             "Day",
		"pdf.half_day":        "Half day",
		"pdf.full_day":        "Full day",
		"pdf.amount":          "Amount",
		"pdf.subtotal":        "Subtotal",
		"pdf.tax":             "Tax",
		"pdf.total":           "Total",
		"email.subject":       "Invoice",
		"email.body":          "Hello,\n\nPlease find attached invoice",
		"home":                "Home",
		"login":               "Log in",
		"logout":              "Log out",
		"username":            "Username",
		"password":            "Password",
		"save":                "Save",
		"update":              "Update",
		"upload":              "Upload",
		"delete":              "Delete",
		"none":                "Nothing yet",
		"new_invoice":         "New invoice",
		"create_invoice":      "Invoice days",
		"new_client":          "New client",
		"number":              "Number",
		"client":              "Client",
		"date":                "Date",
		"date_due":            "Due date",
		"date_paid":           "Paid on",
		"status":              "Status",
		"total":               "Total",
		"daily_rate":          "Daily rate",
		"tax":                 "Tax",
		"description":         "Description",
		"days":                "Days",
		"last_edited":         "Last edited",
		"drafts":              "Drafts",
		"saved_invoices":      "Saved invoices",
		"money_status":        "Money status",
		"send_email":          "Send by email",
		"smtp_password":       "SMTP password",
		"upload_pdf":          "Attach a PDF",
		"download_pdf":        "Download PDF",
		"name":                "Name",
		"contact":             "Contact",
		"email":               "Email",
		"phone":               "Phone",
		"address":             "Address",
		"postal_code":         "Postal code",
		"city":                "City",
		"country":             "Country",
		"vat_number":          "VAT number",
		"default_daily_rate":  "Default daily rate",
		"default_tax":         "Default tax",
		"date_format":         "Date format",
		"currency_symbol":     "Currency symbol",
		"symbol_before":       "Symbol before amount",
		"decimal_separator":   "Decimal separator",
		"thousands_separator": "Thousands separator",
		"smtp_host":           "SMTP host",
		"smtp_port":           "SMTP port",
		"smtp_username":       "SMTP username",
		"example":             "Example",
		"calendar.no_days":    "No days to invoice",
		"pdf.missing":         "PDF file missing",
		"not_found":           "Not found",
	},
}

// T translates code for lang. Unknown languages fall back to French, unknown codes to
// the code itself.
func T(lang, code string) string {
	if m, ok := catalog[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalog[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if tag == "" {
			continue
		}
		base := strings.SplitN(tag, "-", 2)[0]
		if _, ok := catalog[base]; ok {
			return base
		}
	}
	return DefaultLang
}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the language stored by WithLang, or the default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(string); ok && l != "" {
		return l
	}
	return DefaultLang
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}
