package store

import "strings"

type Mobility string

const (
	MobilityVoiture Mobility = "Voiture"
	MobilityVelo    Mobility = "Velo"
	MobilityPied    Mobility = "Pied"
	MobilityMoto    Mobility = "Moto"
)

var Mobilities = []Mobility{MobilityVoiture, MobilityVelo, MobilityPied, MobilityMoto}

type Season string

const (
	SeasonEte       Season = "Ete"
	SeasonPrintemps Season = "Printemps"
	SeasonAutomne   Season = "Automne"
	SeasonHiver     Season = "Hiver"
)

var Seasons = []Season{SeasonEte, SeasonPrintemps, SeasonAutomne, SeasonHiver}

type ForWho string

const (
	ForWhoFamille   ForWho = "Famille"
	ForWhoSeul      ForWho = "Seul"
	ForWhoGroupe    ForWho = "Groupe"
	ForWhoEntreAmis ForWho = "EntreAmis"
)

var Audiences = []ForWho{ForWhoFamille, ForWhoSeul, ForWhoGroupe, ForWhoEntreAmis}

type ActivityCategory string

const (
	CategoryMusee    ActivityCategory = "Musee"
	CategoryChateau  ActivityCategory = "Chateau"
	CategoryActivite ActivityCategory = "Activite"
	CategoryParc     ActivityCategory = "Parc"
	CategoryGrotte   ActivityCategory = "Grotte"
)

var Categories = []ActivityCategory{CategoryMusee, CategoryChateau, CategoryActivite, CategoryParc, CategoryGrotte}

func ParseMobility(value string) (Mobility, bool) {
	return parseEnum(value, Mobilities)
}

func ParseSeason(value string) (Season, bool) {
	return parseEnum(value, Seasons)
}

func ParseForWho(value string) (ForWho, bool) {
	return parseEnum(value, Audiences)
}

func ParseCategory(value string) (ActivityCategory, bool) {
	return parseEnum(value, Categories)
}

func parseEnum[T ~string](value string, domain []T) (T, bool) {
	value = strings.TrimSpace(value)
	for _, candidate := range domain {
		if strings.EqualFold(value, string(candidate)) {
			return candidate, true
		}
	}
	var zero T
	return zero, false
}

// EnumValues renders a domain as "A, B, C" for validation messages.
func EnumValues[T ~string](domain []T) string {
	names := make([]string, len(domain))
	for i, value := range domain {
		names[i] = string(value)
	}
	return strings.Join(names, ", ")
}
