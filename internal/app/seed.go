package app

import (
	"context"
	"fmt"
	"time"

	"henritrip/api/internal/store"
)

type seedUser struct {
	id       int64
	email    string
	password string
	role     string
}

type seedActivity struct {
	id           int64
	title        string
	description  string
	category     store.ActivityCategory
	address      string
	phoneNumber  string
	openingHours string
	website      string
	startTime    string
	endTime      string
	forWho       store.ForWho
}

type seedDay struct {
	id         int64
	title      string
	date       time.Time
	activities []seedActivity
}

type seedGuide struct {
	guide store.Guide
	days  []seedDay
}

var seedUsers = []seedUser{
	{id: 1, email: "admin@henritrip.test", password: "admin123", role: "Admin"},
	{id: 2, email: "alice@henritrip.test", password: "alice123", role: "User"},
	{id: 3, email: "bob@henritrip.test", password: "bob123", role: "User"},
}

var seedInvitations = []store.Invitation{
	{GuideID: 1, UserID: 2},
	{GuideID: 2, UserID: 2},
	{GuideID: 2, UserID: 3},
}

func seedDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var seedGuides = []seedGuide{
	{
		guide: store.Guide{
			ID:              1,
			Title:           "Weekend à Paris",
			Description:     "Itinéraire de 3 jours pour découvrir les incontournables de Paris, entre balades, musées et quartiers emblématiques.",
			NumberOfDays:    3,
			Destination:     strPtr("Paris, France"),
			CoverImageURL:   strPtr("https://images.unsplash.com/photo-1499856871958-5b9627545d1a?auto=format&fit=crop&w=1200&q=80"),
			Mobility:        store.MobilityPied,
			Season:          store.SeasonPrintemps,
			ForWho:          store.ForWhoEntreAmis,
			CreatedByUserID: 1,
		},
		days: []seedDay{
			{id: 101, title: "Centre historique", date: seedDate(2025, time.September, 1), activities: []seedActivity{
				{id: 1001, title: "Petit-déjeuner au café", description: "Commencer la journée dans un café de quartier avant la visite du centre historique.", category: store.CategoryActivite, address: "Le Marais, Paris", phoneNumber: "0102030405", openingHours: "08:00-11:00", website: "https://example.com/cafe-paris", startTime: "08:30", endTime: "09:15", forWho: store.ForWhoEntreAmis},
				{id: 1002, title: "Île de la Cité et Notre-Dame", description: "Balade à pied autour de l'île de la Cité et découverte des points d'intérêt extérieurs.", category: store.CategoryActivite, address: "Île de la Cité, Paris", openingHours: "Accès libre", website: "https://www.paris.fr", startTime: "10:00", endTime: "11:30", forWho: store.ForWhoGroupe},
				{id: 1003, title: "Balade sur les quais de Seine", description: "Parcours à pied le long des quais avec pauses photo et points de vue sur les monuments.", category: store.CategoryParc, address: "Quais de Seine, Paris", openingHours: "Accès libre", website: "https://en.parisinfo.com", startTime: "12:00", endTime: "13:00", forWho: store.ForWhoEntreAmis},
			}},
			{id: 102, title: "Musées et monuments", date: seedDate(2025, time.September, 2), activities: []seedActivity{
				{id: 1101, title: "Musée du Louvre", description: "Visite des salles principales et des œuvres incontournables. Réservation conseillée.", category: store.CategoryMusee, address: "Rue de Rivoli, Paris", phoneNumber: "0140205050", openingHours: "09:00-18:00", website: "https://www.louvre.fr", startTime: "09:30", endTime: "12:30", forWho: store.ForWhoGroupe},
				{id: 1102, title: "Jardin des Tuileries", description: "Pause et promenade entre deux visites dans un espace vert central.", category: store.CategoryParc, address: "Place de la Concorde, Paris", openingHours: "07:00-21:00", website: "https://www.louvre.fr/decouvrir/le-domaine-des-tuileries", startTime: "12:45", endTime: "13:30", forWho: store.ForWhoFamille},
				{id: 1103, title: "Tour Eiffel (extérieur + Champ de Mars)", description: "Découverte de la Tour Eiffel et promenade au Champ de Mars.", category: store.CategoryActivite, address: "Champ de Mars, Paris", openingHours: "Accès extérieur libre", website: "https://www.toureiffel.paris", startTime: "15:00", endTime: "17:00", forWho: store.ForWhoEntreAmis},
			}},
			{id: 103, title: "Balade et détente", date: seedDate(2025, time.September, 3), activities: []seedActivity{
				{id: 1201, title: "Montmartre et Sacré-Cœur", description: "Balade dans les ruelles de Montmartre et point de vue depuis la basilique.", category: store.CategoryActivite, address: "Montmartre, Paris", openingHours: "Accès quartier libre", website: "https://www.paris.fr", startTime: "10:00", endTime: "12:00", forWho: store.ForWhoGroupe},
				{id: 1202, title: "Parc des Buttes-Chaumont", description: "Fin de séjour plus calme avec promenade dans un parc parisien.", category: store.CategoryParc, address: "1 Rue Botzaris, Paris", openingHours: "07:00-22:00", website: "https://www.paris.fr/lieux/parc-des-buttes-chaumont-1776", startTime: "15:00", endTime: "16:30", forWho: store.ForWhoFamille},
			}},
		},
	},
	{
		guide: store.Guide{
			ID:              2,
			Title:           "Rome en 2 jours",
			Description:     "Guide express pour explorer Rome sur un week-end, avec un parcours simple et des activités classées par jour.",
			NumberOfDays:    2,
			Destination:     strPtr("Rome, Italie"),
			CoverImageURL:   strPtr("https://images.unsplash.com/photo-1552832230-c0197dd311b5?auto=format&fit=crop&w=1200&q=80"),
			Mobility:        store.MobilityPied,
			Season:          store.SeasonEte,
			ForWho:          store.ForWhoGroupe,
			CreatedByUserID: 1,
		},
		days: []seedDay{
			{id: 201, title: "Rome antique", date: seedDate(2025, time.October, 5), activities: []seedActivity{
				{id: 2001, title: "Colisée", description: "Visite du Colisée et découverte de l'histoire du site antique.", category: store.CategoryActivite, address: "Piazza del Colosseo, Rome", openingHours: "08:30-19:00", website: "https://parcocolosseo.it", startTime: "09:30", endTime: "11:00", forWho: store.ForWhoFamille},
				{id: 2002, title: "Forum Romain", description: "Parcours à pied dans les ruines du Forum Romain, à proximité du Colisée.", category: store.CategoryActivite, address: "Via della Salara Vecchia, Rome", openingHours: "09:00-18:30", website: "https://parcocolosseo.it", startTime: "11:15", endTime: "13:00", forWho: store.ForWhoGroupe},
				{id: 2003, title: "Fontaine de Trevi", description: "Pause dans le centre historique pour découvrir l'un des monuments les plus connus de Rome.", category: store.CategoryActivite, address: "Piazza di Trevi, Rome", openingHours: "Accès libre", website: "https://www.turismoroma.it", startTime: "16:00", endTime: "16:45", forWho: store.ForWhoEntreAmis},
			}},
			{id: 202, title: "Vatican et centre", date: seedDate(2025, time.October, 6), activities: []seedActivity{
				{id: 2101, title: "Musées du Vatican", description: "Visite des collections et de la Chapelle Sixtine. Réservation fortement conseillée.", category: store.CategoryMusee, address: "Viale Vaticano, Rome", openingHours: "08:00-19:00", website: "https://www.museivaticani.va", startTime: "09:00", endTime: "12:00", forWho: store.ForWhoGroupe},
				{id: 2102, title: "Place Saint-Pierre", description: "Découverte de la place et de son architecture, juste après la visite des musées.", category: store.CategoryActivite, address: "Piazza San Pietro, Vatican", openingHours: "Accès libre", website: "https://www.vatican.va", startTime: "12:15", endTime: "13:00", forWho: store.ForWhoFamille},
				{id: 2103, title: "Balade Piazza Navona", description: "Promenade de fin de journée dans le centre, avec places historiques et ambiance locale.", category: store.CategoryActivite, address: "Piazza Navona, Rome", openingHours: "Accès libre", website: "https://www.turismoroma.it", startTime: "17:00", endTime: "18:00", forWho: store.ForWhoEntreAmis},
			}},
		},
	},
}

// seed loads the demo data set. Ids are explicit so links shared around the
// demo stay stable; the store counters move past them.
func (s *Service) seed(ctx context.Context) error {
	for _, u := range seedUsers {
		hash, err := s.passwords.HashPassword(u.password)
		if err != nil {
			return err
		}
		if _, err := s.store.CreateUser(ctx, store.User{ID: u.id, Email: u.email, PasswordHash: hash, Role: u.role}); err != nil {
			return fmt.Errorf("user %s: %w", u.email, err)
		}
	}

	for _, g := range seedGuides {
		days := make([]store.GuideDay, 0, len(g.days))
		for i, d := range g.days {
			date := d.date
			days = append(days, store.GuideDay{ID: d.id, DayNumber: i + 1, Title: d.title, Date: &date})
		}
		if _, _, err := s.store.CreateGuide(ctx, g.guide, days); err != nil {
			return fmt.Errorf("guide %d: %w", g.guide.ID, err)
		}
		for _, d := range g.days {
			for i, a := range d.activities {
				activity := store.Activity{
					ID:           a.id,
					GuideDayID:   d.id,
					Title:        a.title,
					Description:  a.description,
					Category:     a.category,
					Address:      a.address,
					PhoneNumber:  optional(&a.phoneNumber),
					OpeningHours: optional(&a.openingHours),
					Website:      optional(&a.website),
					StartTime:    optional(&a.startTime),
					EndTime:      optional(&a.endTime),
					ForWho:       a.forWho,
					VisitOrder:   i + 1,
				}
				if _, err := s.store.CreateActivity(ctx, activity); err != nil {
					return fmt.Errorf("activity %d: %w", a.id, err)
				}
			}
		}
	}

	for _, invitation := range seedInvitations {
		if err := s.store.CreateInvitation(ctx, invitation); err != nil {
			return fmt.Errorf("invitation %d/%d: %w", invitation.GuideID, invitation.UserID, err)
		}
	}
	return nil
}

func strPtr(value string) *string {
	return &value
}
